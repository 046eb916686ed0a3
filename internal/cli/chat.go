// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/config"
	"github.com/jeranaias/geochat-tui/internal/controller"
	"github.com/jeranaias/geochat-tui/internal/export"
	"github.com/jeranaias/geochat-tui/internal/mapview"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/session"
	"github.com/jeranaias/geochat-tui/internal/storage"
	"github.com/jeranaias/geochat-tui/internal/util"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode",
		Long: `Start an interactive chat without the full-screen TUI.

Type a question and press Enter. Lines starting with "/" are commands;
type /help to list them. Ctrl+C or Ctrl+D exits.`,
		Args: cobra.NoArgs,
		RunE: a.runChat,
	}
}

func (a *app) runChat(cmd *cobra.Command, _ []string) error {
	ctrl := a.newController()
	r := newREPL(ctrl, cmd.OutOrStdout(), a.cfg.UI.ShowQuery, a.log)
	defer ctrl.Detach(r.canvas)

	var reader lineReader
	if IsTTY() {
		reader = newLinerReader()
	} else {
		reader = newScanReader(cmd.InOrStdin())
	}
	defer reader.Close()

	return r.loop(cmd.Context(), reader)
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader is where the REPL reads its lines from.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader adds line editing and persistent history on a terminal.
type linerReader struct {
	state       *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{state: state, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = state.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}
	return line, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.state.WriteHistory(f)
			f.Close()
		}
	}
	return r.state.Close()
}

// scanReader reads piped input; prompts are not printed.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{sc: bufio.NewScanner(in)}
}

func (r *scanReader) Prompt(string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// errQuit ends the loop without an error.
var errQuit = errors.New("quit")

type repl struct {
	ctrl      *controller.Controller
	canvas    *mapview.CanvasSurface
	out       io.Writer
	showQuery bool
	exportDir string
	log       *zap.Logger
}

func newREPL(ctrl *controller.Controller, out io.Writer, showQuery bool, log *zap.Logger) *repl {
	canvas := mapview.NewCanvasSurface(min(GetTerminalWidth()-2, 78), 18)
	ctrl.Attach(canvas)
	return &repl{
		ctrl:      ctrl,
		canvas:    canvas,
		out:       out,
		showQuery: showQuery,
		exportDir: ".",
		log:       log,
	}
}

func (r *repl) loop(ctx context.Context, reader lineReader) error {
	r.printTranscript(r.ctrl.State().Transcript)
	fmt.Fprintln(r.out, dimStyle.Render("Type /help for commands."))

	for {
		line, err := reader.Prompt(string(r.ctrl.State().Mode) + "> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}
		if err := r.handle(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(r.out, errorStyle.Render("[Error]"), err)
		}
	}
}

// handle runs one input line: a command or a question.
func (r *repl) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, "/"):
		return r.command(ctx, strings.Fields(line))
	default:
		return r.ask(ctx, line)
	}
}

func (r *repl) ask(ctx context.Context, text string) error {
	st, err := r.ctrl.Send(ctx, text)
	if err != nil {
		fmt.Fprintln(r.out, warningStyle.Render(session.ErrorNotice))
		return err
	}
	r.printAnswer(st)
	return nil
}

func (r *repl) printAnswer(st session.State) {
	bot, ok := st.LastBotMessage()
	if !ok {
		return
	}
	fmt.Fprintln(r.out, modeLabel(bot.Mode))
	displayAnswer(r.out, bot.Text)
	if r.showQuery && bot.Query != "" {
		fmt.Fprintln(r.out, queryStyle.Render("SQL: "+bot.Query))
	}
	if bot.Mode == model.ModeMapping && st.HasMap {
		r.printMap(st)
	}
	if st.SimilarQuestion != "" {
		fmt.Fprintln(r.out, dimStyle.Render("Similar question: "+st.SimilarQuestion+"  (/y to ask it)"))
	}
}

func (r *repl) printMap(st session.State) {
	view := r.canvas.Plain()
	if ColorsEnabled() {
		view = r.canvas.View()
	}
	if view != "" {
		fmt.Fprintln(r.out, view)
	}
	fmt.Fprintln(r.out, dimStyle.Render(st.Features.Summary()+" · "+r.canvas.Caption()))
}

func (r *repl) printTranscript(msgs []model.Message) {
	printMessages(r.out, msgs, r.showQuery)
}

// =============================================================================
// COMMANDS
// =============================================================================

const replHelp = `Commands:
  /mode [NAME]          show or set the mode
  /y                    ask the suggested similar question
  /new                  save this chat and start a new one
  /save                 commit this chat to the store
  /sessions             list stored chats
  /open N|ID            open a stored chat
  /history              print this chat
  /map FILE             save the current map (.html or .geojson)
  /export md|json|html  export this chat
  /quit                 exit`

func (r *repl) command(ctx context.Context, fields []string) error {
	name, args := strings.ToLower(strings.TrimPrefix(fields[0], "/")), fields[1:]
	switch name {
	case "help", "h", "?":
		fmt.Fprintln(r.out, replHelp)
	case "quit", "q", "exit":
		return errQuit
	case "mode", "m":
		return r.cmdMode(args)
	case "y", "yes":
		st := r.ctrl.AcceptSuggestion()
		if st.Input == "" {
			return errors.New("no suggestion to ask")
		}
		return r.ask(ctx, st.Input)
	case "new", "n":
		st := r.ctrl.NewSession(ctx)
		fmt.Fprintln(r.out, successStyle.Render(st.Status))
		r.printTranscript(st.Transcript)
	case "save", "s":
		st, err := r.ctrl.SaveNow(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, successStyle.Render(st.Status))
	case "sessions", "ls", "list":
		st, err := r.ctrl.Refresh(ctx)
		if err != nil {
			return err
		}
		printSessions(r.out, st.Sessions)
	case "open", "o":
		return r.cmdOpen(ctx, args)
	case "history":
		r.printTranscript(r.ctrl.State().Transcript)
	case "map":
		return r.cmdMap(args)
	case "export", "e":
		return r.cmdExport(args)
	default:
		return fmt.Errorf("unknown command %s, try /help", fields[0])
	}
	return nil
}

func (r *repl) cmdMode(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Mode:", modeLabel(r.ctrl.State().Mode))
		return nil
	}
	mode, err := model.ParseMode(args[0])
	if err != nil {
		return err
	}
	st := r.ctrl.SelectMode(mode)
	fmt.Fprintln(r.out, "Mode:", modeLabel(st.Mode))
	return nil
}

func (r *repl) cmdOpen(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: /open N|ID")
	}
	id := args[0]
	sessions := r.ctrl.State().Sessions
	if n, err := strconv.Atoi(id); err == nil && n >= 1 && n <= len(sessions) {
		id = sessions[n-1].ID
	}
	st, err := r.ctrl.Open(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, successStyle.Render(st.Status))
	r.printTranscript(st.Transcript)
	return nil
}

func (r *repl) cmdMap(args []string) error {
	st := r.ctrl.State()
	if !st.HasMap {
		return export.ErrNoMap
	}
	if len(args) == 0 {
		r.printMap(st)
		return nil
	}

	path := args[0]
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".geojson") || strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = export.MapGeoJSON(st.Features)
	} else {
		data, err = export.ReplayHTML(r.ctrl.CurrentMap(), storage.Title(st.Transcript))
	}
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return err
	}
	fmt.Fprintln(r.out, successStyle.Render("Map written to "+path))
	return nil
}

func (r *repl) cmdExport(args []string) error {
	format := "md"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}
	st := r.ctrl.State()
	if !st.HasConversation() {
		return errors.New("nothing to export yet")
	}
	t := controller.TranscriptOf(st)
	opts := export.DefaultOptions()
	opts.OutputDir = r.exportDir
	opts.IncludeQueries = r.showQuery

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}
	path, err := export.ExportToFile(&t, exporter, opts)
	if err != nil {
		return err
	}
	r.log.Info("transcript exported", zap.String("path", path), zap.String("format", format))
	fmt.Fprintln(r.out, successStyle.Render("Exported to "+path))
	return nil
}
