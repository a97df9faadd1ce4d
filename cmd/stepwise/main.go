package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/stepwisedbg/go-stepwise/stepwise"
	"github.com/stepwisedbg/go-stepwise/stepwise/backend"
	"github.com/stepwisedbg/go-stepwise/stepwise/backend/headless"
	"github.com/stepwisedbg/go-stepwise/stepwise/backend/terminal"
	"github.com/stepwisedbg/go-stepwise/stepwise/insn"
	"github.com/stepwisedbg/go-stepwise/stepwise/logging"
	"github.com/stepwisedbg/go-stepwise/stepwise/machine"
)

func main() {
	app := cli.NewApp()
	app.Name = "Stepwise"
	app.Description = "A source-level stepping tracer for small machine images"
	app.Usage = "stepwise [options] <image file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "image",
			Usage: "Path to the program image file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Trace to stdout without a terminal interface",
		},
		cli.IntFlag{
			Name:  "steps",
			Usage: "Number of line steps to trace (0 = run until halt)",
			Value: 0,
		},
		cli.BoolTFlag{
			Name:  "avoid-nodebug",
			Usage: "Step past frames without line information",
		},
		cli.BoolFlag{
			Name:  "dump-emulation",
			Usage: "Dump the emulation of the instruction at the entry point and exit",
		},
		cli.StringFlag{
			Name:  "test-emulation",
			Usage: "Run the emulation self-test file and exit",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "Enable log categories (step,emulate,all); also read from STEPWISE_LOG",
		},
	}
	app.Action = runSession

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running session", "error", err)
		os.Exit(1)
	}
}

func runSession(c *cli.Context) error {
	names := c.String("log")
	if names == "" {
		names = os.Getenv("STEPWISE_LOG")
	}
	logging.EnableNames(names)

	// Self-test mode needs no image: the test file names its architecture.
	if path := c.String("test-emulation"); path != "" {
		h := insn.NewHandle(nil)
		if !h.TestEmulation(os.Stdout, path) {
			return errors.New("emulation self-test failed")
		}
		return nil
	}

	imagePath := c.String("image")
	if imagePath == "" {
		if c.NArg() > 0 {
			imagePath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no image path provided")
		}
	}

	session, err := stepwise.NewWithFile(imagePath, stepwise.Config{
		AvoidNoDebug: c.BoolT("avoid-nodebug"),
	})
	if err != nil {
		return err
	}

	if c.Bool("dump-emulation") {
		logging.Enable(logging.CategoryEmulate)
		h := session.CurrentInstruction()
		if !h.DumpEmulation(machine.Arch) {
			return errors.New("nothing to emulate at the entry point")
		}
		return nil
	}

	var b backend.Backend
	if c.Bool("headless") {
		b = headless.New(nil)
	} else {
		b = terminal.New()
	}

	title := filepath.Base(imagePath)
	if err := b.Init(backend.Config{Title: title, Provider: session}); err != nil {
		return err
	}
	defer b.Cleanup()

	return session.Trace(b, c.Int("steps"))
}
