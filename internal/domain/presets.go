/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package domain

// StyleReference is the style key sentinel selecting reference-image mode:
// instead of a preset prompt, an extra user-supplied image biases the art
// style of the generation.
const StyleReference = "reference"

// StylePreset is a named, fixed instruction template biasing overall art
// style and mood.
type StylePreset struct {
	Name        string
	Description string
	Prompt      string
}

// GenrePreset is a named, fixed instruction template biasing the narrative
// theme.
type GenrePreset struct {
	Name        string
	Description string
	Prompt      string
}

// Styles holds the fixed style presets, keyed by style key.
var Styles = map[string]StylePreset{
	"kodomomuke": {
		Name:        "Kodomomuke",
		Description: "For young children, simple stories",
		Prompt:      "Kodomomuke manga style, aimed at young children. Features simple, clear line work, large expressive characters, and a bright, wholesome atmosphere. The story should be easy to understand and often teaches a moral lesson.",
	},
	"shonen": {
		Name:        "Shonen",
		Description: "For boys, action focused",
		Prompt:      "Classic Shonen manga style, with dynamic action lines, bold characters, and high-contrast shading suitable for adventure and fight scenes. Emphasizes friendship, perseverance, and growth.",
	},
	"shojo": {
		Name:        "Shojo",
		Description: "For girls, romance focused",
		Prompt:      "Elegant Shojo manga style, with detailed expressive eyes, flowing hair, floral or sparkling motifs, and a strong focus on emotions, romance, and relationships.",
	},
	"seinen": {
		Name:        "Seinen",
		Description: "For young men, complex themes",
		Prompt:      "Mature Seinen manga style, featuring realistic details, intricate backgrounds, complex characters, and a gritty, cinematic atmosphere. Themes can be psychological, philosophical, or contain mature content.",
	},
	"josei": {
		Name:        "Josei",
		Description: "For adult women, realistic themes",
		Prompt:      "Sophisticated Josei manga style, targeting adult women. Features a more realistic and subtle art style, focusing on everyday life, mature relationships, and relatable adult experiences. Can include historical or biographical elements.",
	},
}

// Genres holds the fixed genre presets, keyed by genre key.
var Genres = map[string]GenrePreset{
	"action": {
		Name:        "Action / Adventure",
		Description: "Combat and journeys",
		Prompt:      "The story should be an action/adventure, focusing on combat, journeys, or grand adventures.",
	},
	"romance": {
		Name:        "Romance",
		Description: "Love and relationships",
		Prompt:      "The story should be a romance, focusing on love and relationships.",
	},
	"fantasy": {
		Name:        "Fantasy",
		Description: "Magic and the supernatural",
		Prompt:      "The story should be a fantasy, set in a world with magic and supernatural elements.",
	},
	"horror": {
		Name:        "Horror",
		Description: "Frightening, chilling stories",
		Prompt:      "The story should be a horror, designed to be frightening or chilling.",
	},
	"scifi": {
		Name:        "Sci-Fi",
		Description: "The future and innovation",
		Prompt:      "The story should be sci-fi, focusing on the future, technological innovations, or science.",
	},
	"sports": {
		Name:        "Sports",
		Description: "Competition and training",
		Prompt:      "The story should be about sports, focusing on competition or training.",
	},
	"comedy": {
		Name:        "Comedy",
		Description: "Humor and fun",
		Prompt:      "The story should be a comedy, focusing on humor and fun.",
	},
	"mystery": {
		Name:        "Mystery / Detective",
		Description: "Puzzles and investigation",
		Prompt:      "The story should be a mystery/detective story, focusing on puzzles and investigation.",
	},
}

// ValidStyle reports whether key names a preset style or the reference mode.
func ValidStyle(key string) bool {
	if key == StyleReference {
		return true
	}
	_, ok := Styles[key]
	return ok
}

// ValidGenre reports whether key names a preset genre.
func ValidGenre(key string) bool {
	_, ok := Genres[key]
	return ok
}
