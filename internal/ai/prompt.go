/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import (
	"fmt"
	"strings"

	"mangastudio/internal/domain"
)

// referenceStylePrompt replaces the preset style guideline when the user
// supplies a reference image. The reference image travels as the last image
// part of the request.
const referenceStylePrompt = `Use the last uploaded image as a style reference. Replicate its artistic style, color palette, line work, and overall mood for the manga generation. The style is more important than the content of the reference image.`

// detectionPrompt asks for bubbles as normalized coordinates so the result
// is independent of the rendered image size.
const detectionPrompt = `Analyze this image to identify all speech bubbles or text boxes. For each one, provide its bounding box coordinates (x1, y1, x2, y2 as percentages of image dimensions from 0.0 to 1.0) and the exact text content inside it. Return the output as a JSON object matching the provided schema.`

// PanelPrompt assembles the full generation instruction from the selected
// style, genre, and the user's free-form addition. styleKey must already be
// validated; the reference style swaps in the reference guideline.
func PanelPrompt(styleKey, genreKey, userPrompt string) string {
	var stylePrompt string
	if styleKey == domain.StyleReference {
		stylePrompt = referenceStylePrompt
	} else if s, ok := domain.Styles[styleKey]; ok {
		stylePrompt = s.Prompt
	}
	var genrePrompt string
	if g, ok := domain.Genres[genreKey]; ok {
		genrePrompt = g.Prompt
	}
	if strings.TrimSpace(userPrompt) == "" {
		userPrompt = "None"
	}
	return fmt.Sprintf(`Task: Generate a single manga panel.
Style Guideline: %s
Genre Guideline: %s
User's additional instructions: %s.
Please combine the uploaded images and these instructions to create a cohesive and visually appealing manga panel.`,
		stylePrompt, genrePrompt, userPrompt)
}

// RerenderPrompt builds the in-painting instruction for replacing bubble
// text. Coordinates are emitted at fixed precision so the model sees stable
// numbers across retries.
func RerenderPrompt(bubbles []domain.EditedBubble) string {
	regions := make([]string, len(bubbles))
	for i, b := range bubbles {
		regions[i] = fmt.Sprintf(`Region %d:
- Bounding Box (percentages): x1=%.4f, y1=%.4f, x2=%.4f, y2=%.4f
- Original Text: %q
- New Text: %q`,
			i+1, b.Box.X1, b.Box.Y1, b.Box.X2, b.Box.Y2, b.Text, b.NewText)
	}
	return fmt.Sprintf(`You are an expert image in-painting specialist. Your task is to replace text within specific regions of the provided image.

**CRITICAL INSTRUCTIONS:**
1.  **Preserve Style:** You MUST perfectly preserve the original art style, font style, color, texture, and background within each bounding box. The edit should be seamless and undetectable.
2.  **Modify ONLY Text:** Do NOT alter any part of the image outside the provided bounding boxes.
3.  **Accuracy:** Replace the original text with the new text exactly as provided.

Here are the regions to modify:
%s

The final output must be only the modified image. Do not output any text.`,
		strings.Join(regions, "\n\n"))
}
