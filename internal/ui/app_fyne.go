//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"mangastudio/internal/ai"
	draw "mangastudio/internal/canvas"
	"mangastudio/internal/config"
	"mangastudio/internal/crash"
	"mangastudio/internal/domain"
	"mangastudio/internal/export"
	"mangastudio/internal/history"
	"mangastudio/internal/imaging"
	"mangastudio/internal/intake"
	applog "mangastudio/internal/log"
	"mangastudio/internal/studio"
	"mangastudio/internal/telemetry"
	"mangastudio/internal/version"
)

// Run starts the Fyne-based desktop UI.
func Run() error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	cfg, apiKey, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	defer crash.Recover(cfg.History.HistoryRoot())
	telemetry.InitDefault()

	kv, err := history.OpenSQLiteKV(cfg.History.HistoryRoot(), cfg.History.MaxBytes)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer kv.Close()
	store := history.NewStore(kv)
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	gallery := intake.NewGallery(cfg.General.PreviewEdge)
	var client *ai.Client
	if apiKey != "" {
		client, err = ai.NewClient(ctx, apiKey)
		if err != nil {
			return err
		}
		client.SetModels(cfg.AI.ImageModel, cfg.AI.TextModel)
	}
	st := studio.New(client, gallery, store)

	fyneApp := app.NewWithID("mangastudio")
	w := fyneApp.NewWindow("Manga Studio")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 860)
	if winW < 960 {
		winW = 960
	}
	if winH < 640 {
		winH = 640
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	panelView := NewPanelView()

	// Style and genre selection. Keys are stable; the display shows the
	// preset names.
	styleKeys := make([]string, 0, len(domain.Styles)+1)
	for k := range domain.Styles {
		styleKeys = append(styleKeys, k)
	}
	sort.Strings(styleKeys)
	styleKeys = append(styleKeys, domain.StyleReference)
	styleNames := make([]string, len(styleKeys))
	for i, k := range styleKeys {
		if k == domain.StyleReference {
			styleNames[i] = "Use reference image"
		} else {
			styleNames[i] = domain.Styles[k].Name
		}
	}
	genreKeys := make([]string, 0, len(domain.Genres))
	for k := range domain.Genres {
		genreKeys = append(genreKeys, k)
	}
	sort.Strings(genreKeys)
	genreNames := make([]string, len(genreKeys))
	for i, k := range genreKeys {
		genreNames[i] = domain.Genres[k].Name
	}

	referenceRow := container.NewVBox()
	styleSelect := widget.NewSelect(styleNames, nil)
	genreSelect := widget.NewSelect(genreNames, nil)
	promptEntry := widget.NewMultiLineEntry()
	promptEntry.SetPlaceHolder("Additional instructions (optional)")

	syncControls := func() {
		for i, k := range styleKeys {
			if k == st.Style {
				styleSelect.SetSelectedIndex(i)
				break
			}
		}
		for i, k := range genreKeys {
			if k == st.Genre {
				genreSelect.SetSelectedIndex(i)
				break
			}
		}
		promptEntry.SetText(st.Prompt)
	}
	styleSelect.OnChanged = func(string) {
		if i := styleSelect.SelectedIndex(); i >= 0 && i < len(styleKeys) {
			st.Style = styleKeys[i]
			if st.Style == domain.StyleReference {
				referenceRow.Show()
			} else {
				referenceRow.Hide()
			}
		}
	}
	genreSelect.OnChanged = func(string) {
		if i := genreSelect.SelectedIndex(); i >= 0 && i < len(genreKeys) {
			st.Genre = genreKeys[i]
		}
	}
	promptEntry.OnChanged = func(s string) { st.Prompt = s }

	// Source gallery (left).
	sourceDisplay := []string{}
	sourceList := widget.NewList(
		func() int { return len(sourceDisplay) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(sourceDisplay) {
				o.(*widget.Label).SetText(sourceDisplay[i])
			}
		},
	)
	selectedSource := -1
	sourceList.OnSelected = func(id widget.ListItemID) { selectedSource = int(id) }
	refreshSources := func() {
		sourceDisplay = sourceDisplay[:0]
		for i, img := range gallery.Images() {
			sourceDisplay = append(sourceDisplay, fmt.Sprintf("Image %d (%s, %d KiB)", i+1, img.MimeType, len(img.Bytes)/1024))
		}
		sourceList.Refresh()
	}

	readImageURI := func(rc fyne.URIReadCloser) (domain.ImagePayload, error) {
		defer func() { _ = rc.Close() }()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return domain.ImagePayload{}, err
		}
		return imaging.DetectPayload(raw), nil
	}
	imageFilter := fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".webp"})

	btnAddImage := widget.NewButton("Add Image", func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			p, err := readImageURI(rc)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if err := gallery.Add(ctx, []domain.ImagePayload{p}); err != nil {
				dialog.ShowError(err, w)
				return
			}
			refreshSources()
			status.SetText("Image added.")
		}, w)
		fd.SetFilter(imageFilter)
		fd.Show()
	})
	btnRemoveImage := widget.NewButton("Remove", func() {
		if selectedSource < 0 {
			return
		}
		if err := gallery.Remove(selectedSource); err != nil {
			dialog.ShowError(err, w)
			return
		}
		selectedSource = -1
		sourceList.UnselectAll()
		refreshSources()
	})
	btnClearImages := widget.NewButton("Clear", func() {
		gallery.Clear()
		selectedSource = -1
		sourceList.UnselectAll()
		refreshSources()
	})

	referenceLabel := widget.NewLabel("No reference image")
	btnSetReference := widget.NewButton("Set Reference", func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			p, err := readImageURI(rc)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if err := gallery.SetReference(ctx, p); err != nil {
				dialog.ShowError(err, w)
				return
			}
			referenceLabel.SetText(fmt.Sprintf("Reference set (%s)", p.MimeType))
		}, w)
		fd.SetFilter(imageFilter)
		fd.Show()
	})
	btnClearReference := widget.NewButton("Clear Reference", func() {
		gallery.ClearReference()
		referenceLabel.SetText("No reference image")
	})
	referenceRow.Add(widget.NewSeparator())
	referenceRow.Add(referenceLabel)
	referenceRow.Add(container.NewHBox(btnSetReference, btnClearReference))
	referenceRow.Hide()

	// History (right).
	historyDisplay := []string{}
	historyIDs := []string{}
	historyList := widget.NewList(
		func() int { return len(historyDisplay) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(historyDisplay) {
				o.(*widget.Label).SetText(historyDisplay[i])
			}
		},
	)
	refreshHistory := func() {
		historyDisplay = historyDisplay[:0]
		historyIDs = historyIDs[:0]
		for _, it := range store.Items() {
			when := time.UnixMilli(it.Timestamp).Format("Jan 2 15:04")
			d := fmt.Sprintf("%s — %s/%s", when, it.Style, it.Genre)
			if it.Prompt != "" {
				d += " — " + it.Prompt
			}
			historyDisplay = append(historyDisplay, d)
			historyIDs = append(historyIDs, it.ID)
		}
		historyList.Refresh()
	}
	showResult := func() {
		if err := panelView.SetPayload(st.Result()); err != nil {
			dialog.ShowError(err, w)
		}
		panelView.SetBubbles(nil)
	}
	historyList.OnSelected = func(id widget.ListItemID) {
		if id < 0 || int(id) >= len(historyIDs) {
			return
		}
		if err := st.SelectHistory(historyIDs[id]); err != nil {
			dialog.ShowError(err, w)
			return
		}
		syncControls()
		refreshSources()
		if !st.Gallery().ReferencePreview().IsZero() {
			referenceLabel.SetText("Reference preview (from history)")
		}
		showResult()
		status.SetText("Loaded panel from history.")
	}
	btnDeleteHistory := widget.NewButton("Delete Selected", func() {
		// The list keeps no selection accessor; track via OnSelected would
		// fight with load-on-select, so delete the newest match by asking.
		items := store.Items()
		if len(items) == 0 {
			return
		}
		dialog.ShowConfirm("Delete", "Delete the most recently loaded panel?", func(ok bool) {
			if !ok {
				return
			}
			cur, found := "", false
			for _, it := range items {
				if it.ImageURL == imaging.ToDataURL(st.Result()) {
					cur, found = it.ID, true
					break
				}
			}
			if !found {
				cur = items[0].ID
			}
			if err := st.RemoveHistory(ctx, cur); err != nil {
				dialog.ShowError(err, w)
				return
			}
			refreshHistory()
		}, w)
	})
	btnClearHistory := widget.NewButton("Clear History", func() {
		dialog.ShowConfirm("Clear History", "Delete all stored panels?", func(ok bool) {
			if !ok {
				return
			}
			if err := store.Clear(ctx); err != nil {
				dialog.ShowError(err, w)
				return
			}
			refreshHistory()
		}, w)
	})

	// Bubble edit pane (right, below history).
	editPane := container.NewVBox()
	editPane.Hide()
	var rebuildEditPane func()
	rebuildEditPane = func() {
		editPane.Objects = nil
		if st.EditState() != studio.EditEditing {
			editPane.Hide()
			panelView.SetBubbles(nil)
			return
		}
		bubbles := st.Bubbles()
		panelView.SetBubbles(bubbles)
		editPane.Add(widget.NewLabel(fmt.Sprintf("Speech bubbles (%d)", len(bubbles))))
		for _, b := range bubbles {
			id := b.ID
			entry := widget.NewEntry()
			if text, ok := st.BubbleText(id); ok {
				entry.SetText(text)
			}
			entry.OnChanged = func(s string) { _ = st.SetBubbleText(id, s) }
			editPane.Add(widget.NewForm(widget.NewFormItem(id, entry)))
		}
		btnSave := widget.NewButton("Save Text", func() {
			status.SetText("Re-rendering text...")
			if err := st.SaveEdit(ctx); err != nil {
				status.SetText("Save failed.")
				dialog.ShowError(err, w)
				rebuildEditPane()
				return
			}
			showResult()
			rebuildEditPane()
			status.SetText("Text updated.")
		})
		btnCancel := widget.NewButton("Cancel", func() {
			st.CancelEdit()
			rebuildEditPane()
			status.SetText("Edit cancelled.")
		})
		editPane.Add(container.NewHBox(btnSave, btnCancel))
		editPane.Show()
		editPane.Refresh()
	}

	btnGenerate := widget.NewButton("Generate Panel", func() {
		if client == nil {
			dialog.ShowError(ai.ErrMissingAPIKey, w)
			return
		}
		status.SetText("Generating...")
		if err := st.Generate(ctx); err != nil {
			status.SetText("Generation failed.")
			dialog.ShowError(err, w)
			return
		}
		telemetry.Event("panel_generated", map[string]any{"style": st.Style, "genre": st.Genre})
		showResult()
		refreshHistory()
		status.SetText("Panel ready.")
	})
	btnEditText := widget.NewButton("Edit Text", func() {
		if client == nil {
			dialog.ShowError(ai.ErrMissingAPIKey, w)
			return
		}
		status.SetText("Detecting speech bubbles...")
		if err := st.BeginEdit(ctx); err != nil {
			status.SetText("Detection failed.")
			dialog.ShowError(err, w)
			return
		}
		rebuildEditPane()
		status.SetText("Edit the bubble text, then save.")
	})
	btnDownload := widget.NewButton("Download", func() {
		if st.Result().IsZero() {
			return
		}
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			var werr error
			if filepath.Ext(path) == ".pdf" {
				werr = export.WritePDF(st.Result(), path, export.PDFOptions{Title: st.Prompt})
			} else {
				werr = export.WritePNG(st.Result(), path)
			}
			if werr != nil {
				dialog.ShowError(werr, w)
				return
			}
			status.SetText("Saved " + filepath.Base(path))
		}, w)
		fd.SetFileName(studio.DownloadName(time.Now()))
		fd.Show()
	})

	// Sketch tab: draw a source image by hand.
	pad := NewSketchPad(720, 520)
	toolSelect := widget.NewSelect([]string{"Pen", "Eraser"}, func(s string) {
		if s == "Eraser" {
			pad.Surface().SetTool(draw.ToolEraser)
		} else {
			pad.Surface().SetTool(draw.ToolPen)
		}
	})
	toolSelect.SetSelectedIndex(0)
	sizeSlider := widget.NewSlider(1, 40)
	sizeSlider.Value = 5
	sizeSlider.OnChanged = func(v float64) { pad.Surface().SetBrushSize(v) }
	btnSketchClear := widget.NewButton("Clear", func() { pad.Surface().Clear(); pad.Refresh() })
	btnSketchUse := widget.NewButton("Use as Source", func() {
		p, err := pad.Surface().Export()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		pad.Refresh()
		if err := gallery.Add(ctx, []domain.ImagePayload{p}); err != nil {
			dialog.ShowError(err, w)
			return
		}
		refreshSources()
		status.SetText("Sketch added to sources.")
	})
	sketchTab := container.NewBorder(
		container.NewHBox(widget.NewLabel("Tool"), toolSelect, widget.NewLabel("Size"), sizeSlider, btnSketchClear, btnSketchUse),
		nil, nil, nil,
		pad,
	)

	panelTab := container.NewBorder(nil, container.NewHBox(btnDownload, btnEditText), nil, nil, panelView)
	tabs := container.NewAppTabs(
		container.NewTabItem("Panel", panelTab),
		container.NewTabItem("Sketch", sketchTab),
	)

	left := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("Sources"),
			container.NewHBox(btnAddImage, btnRemoveImage, btnClearImages),
			referenceRow,
			widget.NewSeparator(),
		),
		nil, nil, nil,
		sourceList,
	)
	controls := container.NewVBox(
		widget.NewLabel("Style"), styleSelect,
		widget.NewLabel("Genre"), genreSelect,
		widget.NewLabel("Prompt"), promptEntry,
		btnGenerate,
	)
	right := container.NewBorder(
		controls,
		container.NewVBox(widget.NewSeparator(), editPane),
		nil, nil,
		container.NewBorder(widget.NewLabel("History"), container.NewHBox(btnDeleteHistory, btnClearHistory), nil, nil, historyList),
	)

	syncControls()
	refreshHistory()
	w.SetContent(container.NewBorder(nil, status, left, right, tabs))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})
	w.ShowAndRun()
	return nil
}
