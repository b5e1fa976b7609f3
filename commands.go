package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"Lookout/mcp"
	"Lookout/pkg/finder"
	"Lookout/pkg/script"
	"Lookout/pkg/widget"
)

var (
	dumpTitle   string
	jsonOutput  bool
	locatorText string
	locatorFile string
	jsExpr      string
	pointX      int
	pointY      int
	listLimit   int
	exportName  string
	replayDumps []string
	mcpDumps    []string
	logLines    int

	treeCmd = &cobra.Command{
		Use:   "tree <dump>...",
		Short: "Load dumps and print the visible widget tree",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTree,
	}

	findCmd = &cobra.Command{
		Use:   "find <dump>...",
		Short: "Resolve a locator (or JavaScript predicate) against loaded dumps",
		Long: `Resolve a locator against the loaded dumps. A locator must match exactly one
widget; otherwise every candidate is listed. With --js, every widget for which
the expression is true is printed, e.g. --js 'isA("Button") && w.text == "OK"'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runFind,
	}

	suggestCmd = &cobra.Command{
		Use:   "suggest <dump>...",
		Short: "Suggest ranked locators for the widget at a point",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSuggest,
	}

	stepsCmd = &cobra.Command{
		Use:   "steps",
		Short: "Inspect recordings and replay step scripts",
	}
	stepsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored recordings and saved scripts",
		Args:  cobra.NoArgs,
		RunE:  runStepsList,
	}
	stepsShowCmd = &cobra.Command{
		Use:   "show <recording-id>",
		Short: "Print the steps of a stored recording",
		Args:  cobra.ExactArgs(1),
		RunE:  runStepsShow,
	}
	stepsExportCmd = &cobra.Command{
		Use:   "export <recording-id>",
		Short: "Save a stored recording as a script",
		Args:  cobra.ExactArgs(1),
		RunE:  runStepsExport,
	}
	stepsReplayCmd = &cobra.Command{
		Use:   "replay <script>",
		Short: "Resolve every step of a script against loaded dumps",
		Args:  cobra.ExactArgs(1),
		RunE:  runStepsReplay,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	configSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting (log-level, log-file, db-path, scripts-dir, dispose-timeout, recent-dumps)",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	}

	logsCmd = &cobra.Command{
		Use:   "logs",
		Short: "Print the last lines of the log file",
		Long: `Print the last lines of <config-dir>/logs/lookout.log. File logging must be on,
either with --log-file or with "config set log-file true".`,
		Args: cobra.NoArgs,
		RunE: runLogs,
	}

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
)

func init() {
	treeCmd.Flags().StringVar(&dumpTitle, "title", "", "Window title (default: package of the root node)")
	treeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	findCmd.Flags().StringVarP(&locatorText, "locator", "l", "", "Locator YAML, e.g. 'class: Button\\nname: ok'")
	findCmd.Flags().StringVarP(&locatorFile, "file", "f", "", "Read the locator YAML from a file")
	findCmd.Flags().StringVar(&jsExpr, "js", "", "JavaScript predicate over w")

	suggestCmd.Flags().IntVarP(&pointX, "x", "x", 0, "X coordinate")
	suggestCmd.Flags().IntVarP(&pointY, "y", "y", 0, "Y coordinate")
	suggestCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	_ = suggestCmd.MarkFlagRequired("x")
	_ = suggestCmd.MarkFlagRequired("y")

	stepsListCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of recordings")
	stepsExportCmd.Flags().StringVar(&exportName, "name", "", "Script name (default: recording name)")
	stepsReplayCmd.Flags().StringSliceVar(&replayDumps, "dump", nil, "Dump to load first (repeatable)")
	stepsCmd.AddCommand(stepsListCmd, stepsShowCmd, stepsExportCmd, stepsReplayCmd)

	configCmd.AddCommand(configShowCmd, configSetCmd)

	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of lines")

	mcpCmd.Flags().StringSliceVar(&mcpDumps, "dump", nil, "Dump to preload (repeatable)")

	rootCmd.AddCommand(treeCmd, findCmd, suggestCmd, stepsCmd, configCmd, logsCmd, mcpCmd)
}

func loadDumps(paths []string, title string) error {
	for _, p := range paths {
		if _, err := app.LoadDump(p, title); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ========================================
// tree
// ========================================

func runTree(cmd *cobra.Command, args []string) error {
	if err := loadDumps(args, dumpTitle); err != nil {
		return err
	}
	roots := BuildTree(app.Hierarchy())
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), roots)
	}
	for _, r := range roots {
		printTree(cmd.OutOrStdout(), r, 0)
	}
	return nil
}

func printTree(out io.Writer, n mcp.TreeNode, depth int) {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind)
	if n.Name != "" {
		fmt.Fprintf(&b, " name=%q", n.Name)
	}
	if n.Title != "" {
		fmt.Fprintf(&b, " title=%q", n.Title)
	} else if n.Text != "" {
		fmt.Fprintf(&b, " text=%q", n.Text)
	}
	if n.Bounds != "" {
		b.WriteString(" " + n.Bounds)
	}
	if !n.Showing {
		b.WriteString(" (hidden)")
	}
	fmt.Fprintln(out, b.String())
	for _, c := range n.Children {
		printTree(out, c, depth+1)
	}
}

// ========================================
// find
// ========================================

func runFind(cmd *cobra.Command, args []string) error {
	if err := loadDumps(args, ""); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	bridge := NewMCPBridge(app)

	if jsExpr != "" {
		ws, err := app.FindJS(jsExpr)
		if err != nil {
			return err
		}
		infos := make([]*mcp.WidgetInfo, 0, len(ws))
		for _, w := range ws {
			info, err := bridge.widgetInfo(w)
			if err != nil {
				return err
			}
			infos = append(infos, info)
		}
		return printJSON(out, infos)
	}

	text := locatorText
	if locatorFile != "" {
		data, err := os.ReadFile(locatorFile)
		if err != nil {
			return err
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("one of --locator, --file or --js is required")
	}
	// Allow literal "\n" from a single-line shell argument.
	text = strings.ReplaceAll(text, `\n`, "\n")

	info, err := bridge.FindWidget(text)
	var mf *finder.MultipleFoundError
	if errors.As(err, &mf) {
		fmt.Fprintln(out, mf.Error())
		return finder.ErrMultipleFound
	}
	if err != nil {
		return err
	}
	return printJSON(out, info)
}

// ========================================
// suggest
// ========================================

func runSuggest(cmd *cobra.Command, args []string) error {
	if err := loadDumps(args, ""); err != nil {
		return err
	}
	suggestions, err := app.SuggestLocators(pointX, pointY)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, suggestions)
	}
	if len(suggestions) == 0 {
		return fmt.Errorf("no widget at (%d, %d)", pointX, pointY)
	}
	for i, s := range suggestions {
		fmt.Fprintf(out, "%d. [%s] priority %d  %s\n", i+1, s.Type, s.Priority, s.Description)
		if s.Locator != "" {
			fmt.Fprintf(out, "   %s  (key %s)\n", s.Locator, s.Key)
		}
	}
	return nil
}

// ========================================
// steps
// ========================================

func runStepsList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	sessions, err := app.Recordings(listLimit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Recordings (%d):\n", len(sessions))
	for _, s := range sessions {
		started := time.UnixMilli(s.StartTime).Format("2006-01-02 15:04:05")
		fmt.Fprintf(out, "  %s  %-20s %s  %d steps  %s\n", s.ID, s.Name, started, s.StepCount, s.Status)
	}

	scripts, err := app.Scripts()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Scripts (%d):\n", len(scripts))
	for _, s := range scripts {
		fmt.Fprintf(out, "  %-20s %d steps  %s\n", s.Name, s.Steps, s.Path)
	}
	return nil
}

func runStepsShow(cmd *cobra.Command, args []string) error {
	s, steps, err := app.RecordingSteps(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s), %d steps\n", s.Name, s.Status, len(steps))
	for i, st := range steps {
		line := fmt.Sprintf("%3d. %-12s %-24s %s", i+1, st.Action, st.Key, st.Locator)
		if st.Text != "" {
			line += fmt.Sprintf("  text=%q", st.Text)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runStepsExport(cmd *cobra.Command, args []string) error {
	path, err := app.ExportRecording(args[0], exportName)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runStepsReplay(cmd *cobra.Command, args []string) error {
	if err := loadDumps(replayDumps, ""); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ws, err := app.Replay(cmd.Context(), args[0])
	for i, w := range ws {
		fmt.Fprintf(out, "%3d. ok   %s\n", i+1, widget.Describe(w))
	}
	var se *script.StepError
	if errors.As(err, &se) {
		fmt.Fprintf(out, "%3d. FAIL %v\n", se.Index+1, se.Err)
	}
	return err
}

// ========================================
// config
// ========================================

func runConfigShow(cmd *cobra.Command, args []string) error {
	return printJSON(cmd.OutOrStdout(), app.settings.Get())
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	st := app.settings
	key, value := args[0], args[1]
	switch key {
	case "log-level":
		st.SetLogLevel(value)
	case "log-file":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("log-file: %w", err)
		}
		st.SetLogToFile(b)
	case "db-path":
		st.SetDBPath(value)
	case "scripts-dir":
		st.SetScriptsDir(value)
	case "dispose-timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("dispose-timeout: %w", err)
		}
		st.SetDisposeTimeout(d)
	case "recent-dumps":
		if value != "clear" {
			return errors.New("recent-dumps: only \"clear\" is supported")
		}
		st.ClearRecentDumps()
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return st.Save()
}

// ========================================
// logs
// ========================================

func runLogs(cmd *cobra.Command, args []string) error {
	if GetLogFilePath() == "" {
		return errors.New("file logging is off; use --log-file or \"config set log-file true\"")
	}
	if logLines <= 0 {
		return fmt.Errorf("--lines must be positive, got %d", logLines)
	}
	lines, err := ReadRecentLogs(logLines)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return nil
}

// ========================================
// mcp
// ========================================

func runMCP(cmd *cobra.Command, args []string) error {
	if err := loadDumps(mcpDumps, ""); err != nil {
		return err
	}
	err := app.WatchScripts(func(action, name string) {
		LogInfo("scripts").Str("action", action).Str("script", name).Msg("Script changed")
	})
	if err != nil {
		LogWarn("scripts").Err(err).Msg("Script watcher not started")
	}
	return StartMCPServer(app)
}
