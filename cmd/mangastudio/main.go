/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mangastudio/internal/ai"
	"mangastudio/internal/archive"
	"mangastudio/internal/config"
	"mangastudio/internal/crash"
	"mangastudio/internal/domain"
	"mangastudio/internal/export"
	"mangastudio/internal/history"
	"mangastudio/internal/imaging"
	"mangastudio/internal/intake"
	applog "mangastudio/internal/log"
	"mangastudio/internal/sketch"
	"mangastudio/internal/studio"
	"mangastudio/internal/telemetry"
	"mangastudio/internal/ui"
	"mangastudio/internal/version"
)

func usage() {
	fmt.Println("Manga Studio — AI manga panel creation")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mangastudio version|-v|--version                Show version")
	fmt.Println("  mangastudio generate [flags] <image>...          Generate a panel from source images")
	fmt.Println("      -style <name> -genre <name> -prompt <text> -ref <image> -out <file>")
	fmt.Println("  mangastudio detect <image>                       Detect speech bubbles and print them")
	fmt.Println("  mangastudio edit -out <file> <image> <id=text>...  Re-render bubble text")
	fmt.Println("  mangastudio sketch <script> [-out <file>]        Replay a stroke script to a PNG")
	fmt.Println("  mangastudio history list                         List stored panels")
	fmt.Println("  mangastudio history save <id> <file>             Write a stored panel to .png or .pdf")
	fmt.Println("  mangastudio history remove <id>                  Delete one stored panel")
	fmt.Println("  mangastudio history clear                        Delete all stored panels")
	fmt.Println("  mangastudio history export <zip>                 Archive stored panels")
	fmt.Println("  mangastudio history import <zip>                 Load panels from an archive")
	fmt.Println("  mangastudio config path|set-key|forget-key       Manage configuration")
	fmt.Println("  mangastudio ui                                   Launch desktop UI (build with -tags fyne)")
	fmt.Println()
	fmt.Println("Presets:")
	fmt.Printf("  styles: %s\n", strings.Join(styleNames(), ", "))
	fmt.Printf("  genres: %s\n", strings.Join(genreNames(), ", "))
}

func styleNames() []string {
	out := make([]string, 0, len(domain.Styles))
	for k := range domain.Styles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func genreNames() []string {
	out := make([]string, 0, len(domain.Genres))
	for k := range domain.Genres {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")

	cfg, apiKey, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	defer crash.Recover(cfg.History.HistoryRoot())
	telemetry.InitDefault()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	ctx := context.Background()
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Manga Studio — AI manga panel creation")
		fmt.Println(version.String())
	case "generate":
		runGenerate(ctx, cfg, apiKey, args[2:])
	case "detect":
		runDetect(ctx, cfg, apiKey, args[2:])
	case "edit":
		runEdit(ctx, cfg, apiKey, args[2:])
	case "sketch":
		runSketch(args[2:])
	case "history":
		runHistory(ctx, cfg, args[2:])
	case "config":
		runConfig(cfg, args[2:])
	case "ui":
		if err := ui.Run(); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func fatal(err error) {
	applog.WithComponent("cli").Error("command failed", slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

// newClient builds the Gemini client with configured model overrides.
func newClient(ctx context.Context, cfg config.AppConfig, apiKey string) *ai.Client {
	c, err := ai.NewClient(ctx, apiKey)
	if err != nil {
		fatal(err)
	}
	c.SetModels(cfg.AI.ImageModel, cfg.AI.TextModel)
	return c
}

// openStore opens the SQLite-backed history store under the configured
// state root.
func openStore(ctx context.Context, cfg config.AppConfig) (*history.Store, *history.SQLiteKV) {
	kv, err := history.OpenSQLiteKV(cfg.History.HistoryRoot(), cfg.History.MaxBytes)
	if err != nil {
		fatal(err)
	}
	st := history.NewStore(kv)
	if err := st.Load(ctx); err != nil {
		kv.Close()
		fatal(err)
	}
	return st, kv
}

func loadImage(path string) domain.ImagePayload {
	raw, err := os.ReadFile(path)
	if err != nil {
		fatal(err)
	}
	return imaging.DetectPayload(raw)
}

func runGenerate(ctx context.Context, cfg config.AppConfig, apiKey string, args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	style := fs.String("style", "shonen", "art style preset, or \"reference\" with -ref")
	genre := fs.String("genre", "action", "genre preset")
	prompt := fs.String("prompt", "", "additional instructions")
	ref := fs.String("ref", "", "style reference image (sets -style reference)")
	out := fs.String("out", "", "output file; default manga-studio-ai-<ts>.png")
	_ = fs.Parse(args)

	st, kv := openStore(ctx, cfg)
	defer kv.Close()
	gallery := intake.NewGallery(cfg.General.PreviewEdge)
	s := studio.New(newClient(ctx, cfg, apiKey), gallery, st)

	var batch []domain.ImagePayload
	for _, p := range fs.Args() {
		batch = append(batch, loadImage(p))
	}
	if len(batch) > 0 {
		if err := gallery.Add(ctx, batch); err != nil {
			fatal(err)
		}
	}
	if *ref != "" {
		if err := gallery.SetReference(ctx, loadImage(*ref)); err != nil {
			fatal(err)
		}
		*style = domain.StyleReference
	}

	s.Style = *style
	s.Genre = *genre
	s.Prompt = *prompt
	if err := s.Generate(ctx); err != nil {
		fatal(err)
	}
	telemetry.Event("panel_generated", map[string]any{"style": *style, "genre": *genre})

	dest := *out
	if dest == "" {
		dest = studio.DownloadName(time.Now())
	}
	if err := export.WritePNG(s.Result(), dest); err != nil {
		fatal(err)
	}
	fmt.Println("Wrote", dest)
}

func runDetect(ctx context.Context, cfg config.AppConfig, apiKey string, args []string) {
	if len(args) < 1 {
		fmt.Println("detect requires <image>")
		os.Exit(2)
	}
	c := newClient(ctx, cfg, apiKey)
	bubbles, err := c.DetectBubbles(ctx, loadImage(args[0]))
	if err != nil {
		fatal(err)
	}
	for _, b := range bubbles {
		fmt.Printf("%s  [%.4f %.4f %.4f %.4f]  %q\n", b.ID, b.Box.X1, b.Box.Y1, b.Box.X2, b.Box.Y2, b.Text)
	}
}

func runEdit(ctx context.Context, cfg config.AppConfig, apiKey string, args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	out := fs.String("out", "", "output file; default overwrites the input")
	_ = fs.Parse(args)
	rest := fs.Args()
	if len(rest) < 2 {
		fmt.Println("edit requires <image> and at least one <bubble-id=new text>")
		os.Exit(2)
	}
	src := rest[0]
	replacements := map[string]string{}
	for _, pair := range rest[1:] {
		id, text, ok := strings.Cut(pair, "=")
		if !ok {
			fmt.Printf("bad replacement %q, want id=text\n", pair)
			os.Exit(2)
		}
		replacements[id] = text
	}

	c := newClient(ctx, cfg, apiKey)
	image := loadImage(src)
	bubbles, err := c.DetectBubbles(ctx, image)
	if err != nil {
		fatal(err)
	}
	var edits []domain.EditedBubble
	for _, b := range bubbles {
		if text, ok := replacements[b.ID]; ok && text != b.Text {
			edits = append(edits, domain.EditedBubble{Bubble: b, NewText: text})
			delete(replacements, b.ID)
		} else {
			delete(replacements, b.ID)
		}
	}
	for id := range replacements {
		fatal(fmt.Errorf("no bubble %q in the image; run detect first", id))
	}
	if len(edits) == 0 {
		fmt.Println("Nothing to change.")
		return
	}
	result, err := c.RerenderText(ctx, image, edits)
	if err != nil {
		fatal(err)
	}
	dest := *out
	if dest == "" {
		dest = src
	}
	if err := export.WritePNG(result, dest); err != nil {
		fatal(err)
	}
	fmt.Println("Wrote", dest)
}

func runSketch(args []string) {
	fs := flag.NewFlagSet("sketch", flag.ExitOnError)
	out := fs.String("out", "sketch.png", "output file")
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Println("sketch requires <script>")
		os.Exit(2)
	}
	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	p, err := sketch.Render(string(src))
	if err != nil {
		fatal(err)
	}
	if err := export.WritePNG(p, *out); err != nil {
		fatal(err)
	}
	fmt.Println("Wrote", *out)
}

func runHistory(ctx context.Context, cfg config.AppConfig, args []string) {
	if len(args) < 1 {
		fmt.Println("history requires a subcommand: list, save, remove, clear, export, import")
		os.Exit(2)
	}
	st, kv := openStore(ctx, cfg)
	defer kv.Close()

	switch args[0] {
	case "list":
		items := st.Items()
		if len(items) == 0 {
			fmt.Println("History is empty.")
			return
		}
		for _, it := range items {
			when := time.UnixMilli(it.Timestamp).Format("2006-01-02 15:04")
			line := fmt.Sprintf("%s  %s  %s/%s", it.ID, when, it.Style, it.Genre)
			if it.Prompt != "" {
				line += "  " + it.Prompt
			}
			fmt.Println(line)
		}
	case "save":
		if len(args) < 3 {
			fmt.Println("history save requires <id> and <file>")
			os.Exit(2)
		}
		item, ok := st.Find(args[1])
		if !ok {
			fatal(fmt.Errorf("no history item %q", args[1]))
		}
		p, err := imaging.FromDataURL(item.ImageURL)
		if err != nil {
			fatal(err)
		}
		dest := args[2]
		if strings.EqualFold(filepath.Ext(dest), ".pdf") {
			err = export.WritePDF(p, dest, export.PDFOptions{Title: item.Prompt})
		} else {
			err = export.WritePNG(p, dest)
		}
		if err != nil {
			fatal(err)
		}
		fmt.Println("Wrote", dest)
	case "remove":
		if len(args) < 2 {
			fmt.Println("history remove requires <id>")
			os.Exit(2)
		}
		if err := st.Remove(ctx, args[1]); err != nil {
			fatal(err)
		}
		fmt.Println("Removed.")
	case "clear":
		if err := st.Clear(ctx); err != nil {
			fatal(err)
		}
		fmt.Println("History cleared.")
	case "export":
		if len(args) < 2 {
			fmt.Println("history export requires <zip>")
			os.Exit(2)
		}
		if err := archive.ExportHistory(st.Items(), args[1]); err != nil {
			fatal(err)
		}
		fmt.Println("Wrote", args[1])
	case "import":
		if len(args) < 2 {
			fmt.Println("history import requires <zip>")
			os.Exit(2)
		}
		items, err := archive.ImportHistory(args[1])
		if err != nil {
			fatal(err)
		}
		// Oldest first so Record's prepend restores the archive order.
		added := 0
		for i := len(items) - 1; i >= 0; i-- {
			if _, ok := st.Find(items[i].ID); ok {
				continue
			}
			if err := st.Record(ctx, items[i]); err != nil {
				fatal(err)
			}
			added++
		}
		fmt.Printf("Imported %d item(s).\n", added)
	default:
		fmt.Println("unknown history subcommand:", args[0])
		os.Exit(2)
	}
}

func runConfig(cfg config.AppConfig, args []string) {
	if len(args) < 1 {
		fmt.Println("config requires a subcommand: path, set-key, forget-key")
		os.Exit(2)
	}
	switch args[0] {
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			fatal(err)
		}
		fmt.Println(path)
	case "set-key":
		fmt.Print("Gemini API key: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			fatal(err)
		}
		key := strings.TrimSpace(line)
		if key == "" {
			fatal(fmt.Errorf("empty API key"))
		}
		if err := config.Save(cfg, key); err != nil {
			fatal(err)
		}
		fmt.Println("API key stored in the OS keyring.")
	case "forget-key":
		if err := config.ForgetAPIKey(); err != nil {
			fatal(err)
		}
		fmt.Println("API key removed.")
	default:
		fmt.Println("unknown config subcommand:", args[0])
		os.Exit(2)
	}
}
