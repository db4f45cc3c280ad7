package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fanpei91/hostsed/config"
	"github.com/fanpei91/hostsed/dns"
	"github.com/fanpei91/hostsed/editor"
	"github.com/fanpei91/hostsed/hosts"
	"github.com/fanpei91/hostsed/ipdb"
	"github.com/fanpei91/hostsed/system"
	"github.com/fanpei91/hostsed/ui"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type flags struct {
	print  bool
	search string
}

var (
	f flags
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	flag.StringVar(&cfg.HostsPath, "hosts", cfg.HostsPath, "hosts file to edit")
	flag.StringVar(&cfg.LookupEndpoint, "lookup-endpoint", cfg.LookupEndpoint, "lookup endpoint queried as <endpoint>?domain=<domain>")
	flag.StringVar(&cfg.Resolver, "resolver", cfg.Resolver, "resolver: auto, https, udp, chain")
	flag.StringVar(&cfg.DNSUpstream, "dns-upstream", cfg.DNSUpstream, "dns server used by the udp resolver")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout of one lookup")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "how long lookup answers are reused, 0 to disable")
	flag.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "lookup endpoint requests per second, 0 for unlimited")
	flag.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "delay between the last keystroke and the search")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: TRACE, DEBUG, INFO, WARN, ERROR, FATAL, PANIC")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file used while the interactive editor owns the terminal")
	flag.StringVar(&cfg.RenewEvery, "renew-every", cfg.RenewEvery, "cron spec; renew and save all entries on this schedule instead of starting the editor")
	flag.BoolVar(&cfg.Direct, "direct", cfg.Direct, "write the hosts file directly instead of through an elevated helper")
	flag.BoolVar(&f.print, "print", false, "print the normalized hosts file and exit")
	flag.StringVar(&f.search, "search", "", "print entries ranked against the given query and exit")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config: %v", err)
	}

	interactive := !f.print && f.search == "" && cfg.RenewEvery == ""
	logFile := setupLogging(cfg, interactive)
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := newResolver(cfg)
	writer := newWriter(cfg)

	logrus.Infof("hosts file: %s", cfg.HostsPath)
	logrus.Infof("resolver: %s", resolver)

	switch {
	case f.print:
		store := mustLoad(ctx, cfg.HostsPath)
		fmt.Print(store.Text())

	case f.search != "":
		store := mustLoad(ctx, cfg.HostsPath)
		for _, m := range store.Visible(f.search) {
			fmt.Printf("%.3f\t%s\t%s\t[%s]\n", hosts.Score(f.search, m), m.IP, strings.Join(m.Domains, " "), ipdb.Scope(m.IP))
		}

	case cfg.RenewEvery != "":
		store := mustLoad(ctx, cfg.HostsPath)
		runScheduled(ctx, cfg.RenewEvery, editor.New(store, resolver, writer, editor.LogNotifier{}))

	default:
		runInteractive(ctx, cfg, resolver, writer)
	}
}

func setupLogging(cfg config.Config, toFile bool) io.Closer {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02 15:04:05",
	})

	if !toFile {
		logrus.SetOutput(os.Stderr)
		return nil
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logrus.SetOutput(io.Discard)
		return nil
	}
	logrus.SetOutput(file)
	return file
}

func newResolver(cfg config.Config) dns.Handler {
	https := func() dns.Handler {
		return dns.NewHandlerOverHTTPS(cfg.LookupEndpoint, cfg.Timeout, cfg.RateLimit)
	}
	udp := func() dns.Handler {
		return dns.NewHandlerOverUDP(cfg.DNSUpstream, cfg.Timeout)
	}

	var upstreams []dns.Handler
	switch cfg.Resolver {
	case config.ResolverHTTPS:
		upstreams = []dns.Handler{https()}
	case config.ResolverUDP:
		upstreams = []dns.Handler{udp()}
	case config.ResolverChain:
		upstreams = []dns.Handler{https(), udp()}
	default:
		if cfg.LookupEndpoint != "" {
			upstreams = append(upstreams, https())
		}
		upstreams = append(upstreams, udp())
	}

	return dns.NewHandlerOverCache(upstreams, cfg.CacheTTL)
}

func newWriter(cfg config.Config) system.Writer {
	if cfg.Direct {
		return system.FileWriter{Path: cfg.HostsPath}
	}
	return system.NewPrivilegedWriter(cfg.HostsPath)
}

func mustLoad(ctx context.Context, path string) *hosts.Store {
	store, err := hosts.LoadFile(ctx, path)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return store
}

func runScheduled(ctx context.Context, spec string, e *editor.Editor) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		renewed, failed := e.RenewAll(ctx)
		if renewed == 0 {
			logrus.Infof("nothing renewed (%d failed), not saving", failed)
			return
		}
		e.Save()
		e.Wait()
	}); err != nil {
		logrus.Fatalf("invalid renew schedule %q: %v", spec, err)
	}

	logrus.Infof("renewing on schedule %q", spec)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	e.Wait()
}

func runInteractive(ctx context.Context, cfg config.Config, resolver dns.Handler, writer system.Writer) {
	store := hosts.NewStore()
	alerts := editor.NewChanNotifier(16)
	e := editor.New(store, resolver, writer, alerts)

	loader := func(ctx context.Context) error {
		return hosts.ReadFile(ctx, cfg.HostsPath, store)
	}

	err := ui.Run(ui.New(ctx, e, alerts, loader, cfg.Debounce))
	e.Wait()
	if err != nil {
		logrus.Errorf("editor: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
