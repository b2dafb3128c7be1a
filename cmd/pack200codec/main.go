// Command pack200codec is the CLI front end over the codec core: it reads
// round-trip fixture files and drives decode/dump/round-trip runs,
// grounded on cmd/smog/main.go's subcommand dispatch and
// cmd/bbc-disasm/main.go's urfave/cli v1 App wiring.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/kristofer/pack200codec/pkg/codeattr"
	"github.com/kristofer/pack200codec/pkg/fixture"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "pack200codec"
	app.Usage = "Pack200-style bytecode codec core: decode, dump, and round-trip fixtures"
	app.Version = version
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
	}
	app.Commands = []cli.Command{
		decodeCommand(),
		dumpCommand(),
		roundtripCommand(),
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pack200codec:", err)
		os.Exit(1)
	}
}

func loggerFor(c *cli.Context) *logrus.Logger {
	log := logrus.New()
	if c.GlobalBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func decodeCommand() cli.Command {
	return cli.Command{
		Name:      "decode",
		Usage:     "decode every fixture case's instruction stream and print the byte count",
		ArgsUsage: "fixtures.json",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.NewExitError("missing fixtures.json argument", 1)
			}
			cases, err := loadFixtures(c.Args().First())
			if err != nil {
				return cli.NewExitError(err.Error(), 1)
			}
			log := loggerFor(c)
			for _, cs := range cases {
				out, err := runCase(cs, log)
				if err != nil {
					return cli.NewExitError(fmt.Sprintf("%s: %v", cs.Name, err), 1)
				}
				fmt.Printf("%-24s %d bytes\n", cs.Name, len(out))
			}
			return nil
		},
	}
}

func dumpCommand() cli.Command {
	return cli.Command{
		Name:      "dump",
		Usage:     "decode a fixture case and print a disassembly",
		ArgsUsage: "fixtures.json case-name",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.NewExitError("usage: dump fixtures.json case-name", 1)
			}
			cases, err := loadFixtures(c.Args().First())
			if err != nil {
				return cli.NewExitError(err.Error(), 1)
			}
			name := c.Args().Get(1)
			for _, cs := range cases {
				if cs.Name != name {
					continue
				}
				pool, err := cs.BuildPool(64)
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				asm := codeattr.New(pool, cs.BuildContext(), codeattr.WithLogger(loggerFor(c)))
				sess := cs.BuildSession()
				for _, op := range cs.Opcodes {
					if err := asm.Append(op, sess); err != nil {
						return cli.NewExitError(err.Error(), 1)
					}
				}
				if _, err := asm.Emit(); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				fmt.Print(codeattr.Disassemble(asm))
				return nil
			}
			return cli.NewExitError(fmt.Sprintf("no case named %q", name), 1)
		},
	}
}

func roundtripCommand() cli.Command {
	return cli.Command{
		Name:      "roundtrip",
		Usage:     "decode every fixture case and verify it matches expected_bytes",
		ArgsUsage: "fixtures.json",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.NewExitError("missing fixtures.json argument", 1)
			}
			cases, err := loadFixtures(c.Args().First())
			if err != nil {
				return cli.NewExitError(err.Error(), 1)
			}
			log := loggerFor(c)
			failures := 0
			for _, cs := range cases {
				out, err := runCase(cs, log)
				if err != nil {
					fmt.Printf("FAIL %-24s %v\n", cs.Name, err)
					failures++
					continue
				}
				if cs.ExpectedBytes != nil && !bytesEqual(out, cs.ExpectedBytes) {
					fmt.Printf("FAIL %-24s byte mismatch\n", cs.Name)
					failures++
					continue
				}
				fmt.Printf("ok   %-24s\n", cs.Name)
			}
			if failures > 0 {
				return cli.NewExitError(fmt.Sprintf("%d case(s) failed", failures), 1)
			}
			return nil
		},
	}
}

func loadFixtures(path string) ([]fixture.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fixture.Load(f)
}

func runCase(cs fixture.Case, log *logrus.Logger) ([]byte, error) {
	pool, err := cs.BuildPool(64)
	if err != nil {
		return nil, err
	}
	asm := codeattr.New(pool, cs.BuildContext(), codeattr.WithLogger(log))
	asm.MaxStack = cs.MaxStack
	asm.MaxLocals = cs.MaxLocals
	sess := cs.BuildSession()
	for _, op := range cs.Opcodes {
		if err := asm.Append(op, sess); err != nil {
			return nil, err
		}
	}
	return asm.Emit()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
