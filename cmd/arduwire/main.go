package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/hardware/firmata"
	"github.com/arduwire/arduwire/session"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	flagPort      = "port"
	flagBoard     = "board"
	flagBaud      = "baud"
	flagSyncDelay = "sync-delay"
	flagSettle    = "settle"
	flagDebug     = "debug"

	flagMinPin   = "min-pin"
	flagMaxPin   = "max-pin"
	flagRounds   = "rounds"
	flagInterval = "interval"
	flagAddr     = "addr"
	flagDB       = "db"
	flagEngine   = "engine"
)

func main() {
	logger := logrus.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, logger, os.Args)
	stop()

	os.Exit(code)
}

// execute runs the app and returns the process exit code.
func execute(ctx context.Context, logger *logrus.Logger, args []string) int {
	if err := newApp(logger).RunContext(ctx, args); err != nil {
		logger.Error(err)
		return 1
	}

	return 0
}

// newApp builds the command line app. opts are applied to every session it opens.
func newApp(logger *logrus.Logger, opts ...session.Option) *cli.App {
	a := &app{logger: logger, opts: opts}

	storeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagDB,
			Value:   "arduwire.db",
			Usage:   "path of the database holding board config and layouts",
			EnvVars: []string{"ARDUWIRE_DB"},
		},
		&cli.StringFlag{
			Name:    flagEngine,
			Value:   engineBBolt,
			Usage:   "database engine, bbolt or badger",
			EnvVars: []string{"ARDUWIRE_ENGINE"},
		},
	}

	return &cli.App{
		Name:  "arduwire",
		Usage: "blink LEDs, sound a piezo and play Morse code on a Firmata board",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagPort,
				Aliases: []string{"i"},
				Value:   hardware.DefaultPort(),
				Usage:   "serial device the board is on",
				EnvVars: []string{"ARDUWIRE_PORT"},
			},
			&cli.StringFlag{
				Name:    flagBoard,
				Aliases: []string{"t"},
				Value:   string(hardware.Mega),
				Usage:   "board type, one of arduino, mega, nano or due",
				EnvVars: []string{"ARDUWIRE_BOARD"},
			},
			&cli.IntFlag{
				Name:    flagBaud,
				Value:   firmata.DefaultBaud,
				Usage:   "serial baud rate",
				EnvVars: []string{"ARDUWIRE_BAUD"},
			},
			&cli.DurationFlag{
				Name:    flagSyncDelay,
				Value:   hardware.DefaultSyncDelay,
				Usage:   "time given to the board to reset after connecting",
				EnvVars: []string{"ARDUWIRE_SYNC_DELAY"},
			},
			&cli.DurationFlag{
				Name:    flagSettle,
				Value:   session.DefaultSettle,
				Usage:   "time given to the board after registering each pin",
				EnvVars: []string{"ARDUWIRE_SETTLE"},
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "piezo_test",
				Usage:  "sound the piezo on pin 9 for a second",
				Action: a.withSession(piezoTest),
			},
			{
				Name:   "smooth_piezo",
				Usage:  "ramp the piezo on pin 9 from silent to full",
				Action: a.withSession(smoothPiezo),
			},
			{
				Name:      "morse",
				Usage:     "play TEXT as Morse code on the piezo on pin 9 and the LED on pin 13",
				ArgsUsage: "<text> [speed_factor]",
				Action:    a.withSession(morse),
			},
			{
				Name:   "blink",
				Usage:  "blink the LED on pin 13 a hundred times",
				Action: a.withSession(blink),
			},
			{
				Name:      "blink_x",
				Usage:     "blink the LED on pin 13 AMOUNT times",
				ArgsUsage: "<amount>",
				Action:    a.withSession(blinkX),
			},
			{
				Name:   "beep_with_button",
				Usage:  "beep the piezo on pin 9 while the button on pin 2 is held, until interrupted",
				Action: a.withSession(beepWithButton),
			},
			{
				Name:      "blink_with_input",
				Usage:     "blink a range of LEDs one after another or all together",
				ArgsUsage: "[sequential|concurrent] [interval] [amount]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagMinPin,
						Value: 11,
						Usage: "first pin of the range",
					},
					&cli.IntFlag{
						Name:  flagMaxPin,
						Value: 13,
						Usage: "last pin of the range",
					},
				},
				Action: a.withSession(blinkWithInput),
			},
			{
				Name:  "probe",
				Usage: "write to digital pin 12 and read analog pin 13 back",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagRounds,
						Value: 10,
						Usage: "number of writes",
					},
					&cli.DurationFlag{
						Name:  flagInterval,
						Value: 2 * time.Second,
						Usage: "time between a write and its read",
					},
				},
				Action: a.withSession(probe),
			},
			{
				Name:  "layout",
				Usage: "manage stored pin layouts",
				Flags: storeFlags,
				Subcommands: []*cli.Command{
					{
						Name:      "put",
						Usage:     "store a layout",
						ArgsUsage: "<name> <pin=address>...",
						Action:    a.withStore(putLayout),
					},
					{
						Name:      "show",
						Usage:     "print a stored layout",
						ArgsUsage: "<name>",
						Action:    a.withStore(showLayout),
					},
					{
						Name:   "list",
						Usage:  "list stored layouts",
						Action: a.withStore(listLayouts),
					},
				},
			},
			{
				Name:  "serve",
				Usage: "serve the board over HTTP",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    flagAddr,
						Value:   ":8080",
						Usage:   "address to listen on",
						EnvVars: []string{"ARDUWIRE_ADDR"},
					},
				}, storeFlags...),
				Action: a.withStore(a.serve),
			},
		},
	}
}
