package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mattn/go-isatty"
	slog "github.com/vearne/simplelog"

	"github.com/vearne/tcptap/config"
	"github.com/vearne/tcptap/consts"
	"github.com/vearne/tcptap/dump"
	"github.com/vearne/tcptap/plugin"
	"github.com/vearne/tcptap/protocol"
	"github.com/vearne/tcptap/proxy"
	"github.com/vearne/tcptap/replay"
	"github.com/vearne/tcptap/util"
)

const banner string = `
  ______ ______ ____  ______ ___     ____
 /_  __// ____// __ \/_  __// _ |   / __ \
  / /  / /    / /_/ / / /  / __ |  / ____/
 /_/   \____//_.___/ /_/  /_/ |_| /_/
`

var settings config.AppSettings
var version bool

func init() {
	flag.BoolVar(&version, "version", false,
		"print version")

	flag.DurationVar(&settings.ExitAfter, "exit-after", 0, "exit after specified duration")

	// #################### proxy ######################
	flag.IntVar(&settings.ListenPort, "listen-port", 8888,
		"port to accept the single client connection on")

	flag.IntVar(&settings.Width, "width", dump.CaptureWidth,
		"bytes per rendered trace line")

	flag.StringVar(&settings.Display, "display", "all",
		"trace display mode (ascii|hex|all)")

	flag.BoolVar(&settings.Trace, "trace", true,
		"print a colorized hex/ASCII trace of every relayed chunk")

	flag.StringVar(&settings.ClientColor, "client-color", "cyan",
		"trace color for client-side data")

	flag.StringVar(&settings.ServerColor, "server-color", "yellow",
		"trace color for server-side data")

	// #################### record ######################
	flag.Var(&config.MultiStringOption{Params: &settings.RecordPaths}, "record",
		`append capture records to the given file (may be repeated):
                tcptap -record="session.cap" 8080`)

	flag.Var(&settings.RecordSizeLimit, "record-size-limit",
		"stop recording once a capture file reaches this size (e.g. 512kb, 5mb)")

	flag.StringVar(&settings.OutputKafkaHost, "output-kafka-host", "",
		`mirror capture records to this kafka broker:
                tcptap -record="session.cap" -output-kafka-host="192.168.2.100:9092" 8080`)

	flag.StringVar(&settings.OutputKafkaTopic, "output-kafka-topic",
		"tcptap", "")

	flag.StringVar(&settings.OutputKafkaSASLMechanism, "output-kafka-sasl-mechanism",
		"", "")

	flag.StringVar(&settings.OutputKafkaSASLUsername, "output-kafka-sasl-username",
		"", "")

	flag.StringVar(&settings.OutputKafkaSASLPassword, "output-kafka-sasl-password",
		"", "")

	// #################### replay ######################
	flag.StringVar(&settings.ReplayClientPath, "replay-client", "",
		`replay the capture file, impersonating the recorded client
                against a real server:
                tcptap -replay-client="session.cap" somehost:8080`)

	flag.StringVar(&settings.ReplayServerPath, "replay-server", "",
		`replay the capture file, impersonating the recorded server
                for a real client`)

	/*
		Replay at 2x speed
		-replay-speed=2
	*/
	flag.Float64Var(&settings.ReplaySpeed, "replay-speed", 1, "")

	flag.DurationVar(&settings.ReplayTimeout, "replay-timeout", 0,
		"receive deadline while verifying live data (0 waits forever)")
}

func main() {
	fmt.Print(banner)

	adjustLogLevel()

	// environment supplies defaults, explicit flags override them
	if err := env.Parse(&settings); err != nil {
		slog.Fatal("parse environment: %v", err)
	}
	flag.Parse()

	if version {
		fmt.Println("service: tcptap")
		fmt.Println("Version", consts.Version)
		fmt.Println("BuildTime", consts.BuildTime)
		fmt.Println("GitTag", consts.GitTag)
		return
	}

	if settings.ReplayClientPath != "" && settings.ReplayServerPath != "" {
		slog.Error("-replay-client and -replay-server are mutually exclusive")
		os.Exit(1)
	}

	if settings.ExitAfter > 0 {
		slog.Info("running tcptap for a duration of %s", settings.ExitAfter)
		time.AfterFunc(settings.ExitAfter, func() {
			slog.Info("run timeout %s", settings.ExitAfter)
			os.Exit(0)
		})
	}

	displayMode, err := dump.ParseDisplayMode(settings.Display)
	if err != nil {
		slog.Fatal("%v", err)
	}

	var target string
	if flag.NArg() > 0 {
		target, err = util.NormalizeAddr(flag.Arg(0))
		if err != nil {
			slog.Fatal("%v", err)
		}
	}

	switch {
	case settings.ReplayClientPath != "":
		runReplay(settings.ReplayClientPath, protocol.SideClient, protocol.SideServer, target)
	case settings.ReplayServerPath != "":
		runReplay(settings.ReplayServerPath, protocol.SideServer, protocol.SideClient, target)
	default:
		runProxy(target, displayMode)
	}
}

func runProxy(target string, displayMode dump.DisplayMode) {
	if target == "" {
		slog.Fatal("no target given (want host:port, or a bare port on localhost)")
	}

	clientColor, serverColor := "", ""
	if isatty.IsTerminal(os.Stdout.Fd()) {
		clientColor = dump.Color(settings.ClientColor)
		serverColor = dump.Color(settings.ServerColor)
	}

	var session *plugin.Session
	if outputs := plugin.NewOutputs(&settings); len(outputs) > 0 {
		session = plugin.NewSession(outputs...)
	}

	f := &proxy.Forwarder{
		ListenAddr:  fmt.Sprintf(":%d", settings.ListenPort),
		TargetAddr:  target,
		Width:       settings.Width,
		Mode:        displayMode,
		Trace:       settings.Trace,
		ClientColor: clientColor,
		ServerColor: serverColor,
		Session:     session,
	}
	err := f.Run()
	if clientColor != "" || serverColor != "" {
		// leave the terminal usable
		fmt.Print(dump.Reset)
	}
	if err != nil {
		slog.Error("%v", err)
		os.Exit(1)
	}
}

func runReplay(path string, captured, live protocol.Side, target string) {
	file, err := os.Open(path)
	if err != nil {
		slog.Fatal("open capture file: %v", err)
	}
	defer file.Close()

	var conn net.Conn
	if captured == protocol.SideClient {
		// we speak the client's half, so connect to the real server
		if target == "" {
			slog.Fatal("-replay-client needs a target (host:port, or a bare port on localhost)")
		}
		conn, err = net.Dial("tcp", target)
		if err != nil {
			slog.Fatal("connect to %v: %v", target, err)
		}
	} else {
		// we speak the server's half, so wait for a real client
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", settings.ListenPort))
		if err != nil {
			slog.Fatal("listen: %v", err)
		}
		slog.Info("waiting for a client on %v", ln.Addr())
		conn, err = ln.Accept()
		ln.Close()
		if err != nil {
			slog.Fatal("accept: %v", err)
		}
	}
	defer conn.Close()

	eng := &replay.Engine{
		Conn:         conn,
		CapturedSide: captured,
		LiveSide:     live,
		Speed:        settings.ReplaySpeed,
		Timeout:      settings.ReplayTimeout,
	}
	if err := eng.Run(file); err != nil {
		slog.Error("%v", err)
		os.Exit(1)
	}
}

func adjustLogLevel() {
	logLevel := os.Getenv("SIMPLE_LOG_LEVEL")
	if len(logLevel) > 0 {
		return
	}
	slog.SetLevel(slog.InfoLevel)
}
