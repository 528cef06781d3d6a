// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/ezrec/micro16/config"
	"github.com/ezrec/micro16/cpu"
	"github.com/ezrec/micro16/emulator"
	"github.com/ezrec/micro16/internal"
)

const (
	KEY_INTERRUPT = 0x03 // ^C, stops the clock in raw mode.
	KEY_RETURN    = '\r'
	KEY_DELETE    = 0x7f
)

// keyboard feeds raw terminal input to the emulator keyboard.
func keyboard(emu *emulator.Emulator) (restore func()) {
	restore = func() {}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		logrus.Warnf("keyboard: %v", err)
		return
	}
	restore = func() { _ = term.Restore(fd, state) }

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			key := buf[0]
			switch key {
			case KEY_INTERRUPT:
				emu.Stop()
				continue
			case KEY_RETURN:
				key = '\n'
			case KEY_DELETE:
				key = '\b'
			}
			select {
			case emu.Keys <- uint16(key):
			default:
				logrus.Warn("keyboard: key dropped")
			}
		}
	}()

	return
}

func main() {
	var configFile string
	var compile string
	var program string
	var tokens string
	var input string
	var output string
	var listing bool
	var defines bool
	var mode string
	var restore string
	var save string
	var dump bool
	var verbose bool

	flag.StringVar(&configFile, "config", "", "Machine description (.toml)")
	flag.StringVar(&compile, "c", "", "Assembly file to compile and run")
	flag.StringVar(&program, "p", "", "Program load format file to run")
	flag.StringVar(&tokens, "s", "", "Save the compiled program load format, do not execute")
	flag.StringVar(&input, "i", "", "Tape input ('-' for stdin)")
	flag.StringVar(&output, "o", "", "Tape output ('-' for stdout)")
	flag.BoolVar(&listing, "l", false, "Print the compiled program listing")
	flag.BoolVar(&defines, "defines", false, "Print the assembler defines")
	flag.StringVar(&mode, "m", "auto", "Clock mode: step, instruction, auto")
	flag.StringVar(&restore, "restore", "", "Machine state to start from")
	flag.StringVar(&save, "save", "", "Machine state to write on exit")
	flag.BoolVar(&dump, "dump", false, "Dump the machine state on exit")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		logrus.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Default()
	if len(configFile) != 0 {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			logrus.Fatal(err)
		}
	}
	if len(compile) != 0 {
		cfg.Source = compile
		cfg.Program = ""
	}
	if len(program) != 0 {
		cfg.Program = program
		cfg.Source = ""
	}
	cfg.Verbose = cfg.Verbose || verbose

	emu := emulator.NewEmulator()
	emu.SetOutput(os.Stdout)

	err := emu.Configure(cfg)
	if err != nil {
		logrus.Fatal(err)
	}

	if defines {
		for key, value := range internal.IterSeq2Sorted(emu.Defines()) {
			fmt.Printf("%v = %v\n", key, value)
		}
	}

	if listing {
		os.Stdout.WriteString(emu.Program.Listing(emu.Table))
	}

	if len(tokens) != 0 {
		err = os.WriteFile(tokens, []byte(strings.Join(emu.Program.Tokens(), " ")+"\n"), 0o644)
		if err != nil {
			logrus.Fatalf("%v: %v", tokens, err)
		}
		return
	}

	var tapeIn io.Reader
	switch input {
	case "":
	case "-":
		tapeIn = os.Stdin
	default:
		inf, err := os.Open(input)
		if err != nil {
			logrus.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		tapeIn = inf
	}

	var tapeOut io.Writer
	switch output {
	case "":
	case "-":
		tapeOut = os.Stdout
	default:
		ouf, err := os.Create(output)
		if err != nil {
			logrus.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		tapeOut = ouf
	}

	emu.SetTape(tapeIn, tapeOut)

	if len(restore) != 0 {
		inf, err := os.Open(restore)
		if err != nil {
			logrus.Fatal(err)
		}
		err = emu.Load(inf)
		inf.Close()
		if err != nil {
			logrus.Fatalf("%v: %v", restore, err)
		}
	}

	clock, err := cpu.ParseMode(mode)
	if err == nil && clock == cpu.MODE_MANUAL {
		err = cpu.ErrMode
	}
	if err != nil {
		logrus.Fatal(err)
	}
	err = emu.SetMode(clock)
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	reset := func() {}
	if input != "-" {
		reset = keyboard(emu)
	}
	err = emu.Run(ctx)
	reset()

	if err != nil && ctx.Err() == nil {
		logrus.Error(err)
	}

	if dump {
		snap, berr := emu.Backup()
		if berr != nil {
			logrus.Fatal(berr)
		}
		pp.Fprintln(os.Stderr, snap)
	}

	if len(save) != 0 {
		ouf, serr := os.Create(save)
		if serr != nil {
			logrus.Fatal(serr)
		}
		serr = emu.Save(ouf)
		ouf.Close()
		if serr != nil {
			logrus.Fatalf("%v: %v", save, serr)
		}
	}

	if err != nil && ctx.Err() == nil {
		os.Exit(1)
	}
}
