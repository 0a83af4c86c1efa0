// Command wodrt runs a workout script from the command line: it compiles
// the script's root statement, prints each output record as it is emitted,
// and reads line-oriented commands from stdin to drive "next",
// "pause"/"resume" and "cancel".
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wod-wiki/engine"
	"github.com/wod-wiki/engine/scriptfile"
	"github.com/wod-wiki/engine/strategy"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wodrt: "+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wodrt",
		Short: "wodrt runs a compiled workout script against the engine runtime",
	}
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().Duration("tick", 250*time.Millisecond, "tick interval driving timer/interval blocks")
	_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("tick", root.PersistentFlags().Lookup("tick"))
	viper.SetEnvPrefix("WODRT")
	viper.AutomaticEnv()

	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [script.yaml]",
		Short: "Run a workout script interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(args[0])
		},
	}
}

func newLogger() engine.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	return engine.NewZerologLogger(zl)
}

func runScript(path string) error {
	store, err := scriptfile.Load(path)
	if err != nil {
		return err
	}
	compiler := strategy.NewStandardCompiler()

	driver, err := engine.NewDriver(store, compiler)
	if err != nil {
		return err
	}
	logger := newLogger()
	driver, err = driver.Builder().WithLogger(logger).Build()
	if err != nil {
		return err
	}

	root := store.Root()
	if len(root) == 0 {
		return fmt.Errorf("wodrt: script has no root statements")
	}
	if len(root) > 1 {
		logger.Warn("script declares multiple root statements; running only the first", "count", len(root))
	}

	block, err := driver.Compile(root[0])
	if err != nil {
		return err
	}
	if err := driver.Push(block); err != nil {
		return err
	}

	return driveInteractive(driver, logger, viper.GetDuration("tick"))
}

// driveInteractive runs the engine's tick loop and reads line-oriented
// commands from stdin, forwarding "next" to Advance and everything else as
// a named event, until the stack empties or stdin closes.
func driveInteractive(driver engine.Driver, logger engine.Logger, tickEvery time.Duration) error {
	commands := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			commands <- scanner.Text()
		}
		close(commands)
	}()

	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-commands:
			if !ok {
				return nil
			}
			if err := handleCommand(driver, line); err != nil {
				logger.Error("command failed", "command", line, "err", err)
			}
			if len(driver.Snapshot()) == 0 {
				printRecords(driver)
				return nil
			}
		case <-ticker.C:
			if err := driver.Handle(engine.NewTickEvent(time.Now())); err != nil {
				logger.Error("tick failed", "err", err)
			}
			printRecords(driver)
			if len(driver.Snapshot()) == 0 {
				return nil
			}
		}
	}
}

func handleCommand(driver engine.Driver, line string) error {
	switch line {
	case "next", "":
		return driver.Advance()
	case "pause":
		return driver.Handle(engine.NewEvent(engine.EventTimerPause))
	case "resume":
		return driver.Handle(engine.NewEvent(engine.EventTimerResume))
	case "cancel":
		return driver.Handle(engine.NewEvent(engine.EventCancel))
	default:
		return driver.Handle(engine.NewEvent(line))
	}
}

var lastPrinted int

func printRecords(driver engine.Driver) {
	records := driver.Sink().Records()
	for _, record := range records[lastPrinted:] {
		fmt.Printf("[%s] %v\n", record.Kind, record.Metadata["label"])
	}
	lastPrinted = len(records)
}
