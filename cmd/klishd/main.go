// Command klishd is the klish daemon: it loads a scheme, prepares it
// once, and serves client sessions over a unix-domain socket using the
// wire protocol in internal/ktp (spec.md §6 CLI surface).
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"klish/internal/kcli"
	"klish/internal/kconfig"
	"klish/internal/klog"
	"klish/internal/kscheme"
	"klish/internal/kscheme/kdeploy"
	"klish/internal/kscheme/kyaml"
	"klish/internal/ksession"
	"klish/internal/ktp/daemon"

	_ "klish/internal/kplugin/klishplugin"
)

var (
	flagConfig     string
	flagSocket     string
	flagSchemeFile string
	flagDebug      bool
	flagDryRun     bool
	flagStartView  string
)

func main() {
	root := &cobra.Command{
		Use:   "klishd",
		Short: "klish CLI-framework daemon",
		RunE:  run,
	}
	root.Flags().StringVar(&flagConfig, "config", "", "path to klishd.toml")
	root.Flags().StringVar(&flagSocket, "socket", "", "unix socket path (overrides config)")
	root.Flags().StringVar(&flagSchemeFile, "scheme", "", "scheme file to load (YAML or deploy text)")
	root.Flags().BoolVar(&flagDebug, "debug", false, "verbose logging")
	root.Flags().BoolVar(&flagDryRun, "dry-run", false, "only permanent symbols execute")
	root.Flags().StringVar(&flagStartView, "start-view", "main", "view sessions start in")

	if err := root.Execute(); err != nil {
		kcli.Exit(kcli.BadArgs, err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := kconfig.LoadDaemonConfig(flagConfig)
	if err != nil {
		kcli.Exit(kcli.BadArgs, err)
	}
	if flagSocket != "" {
		cfg.Socket = flagSocket
	}
	if flagSchemeFile != "" {
		cfg.SchemeFiles = []string{flagSchemeFile}
	}
	if flagDebug {
		cfg.Debug = true
	}
	if len(cfg.SchemeFiles) == 0 {
		kcli.Exit(kcli.BadArgs, fmt.Errorf("no scheme file given (use --scheme or scheme_files in config)"))
	}

	log := klog.New("klishd", cfg.Debug, cfg.LogFile)

	img, err := loadScheme(cfg.SchemeFiles)
	if err != nil {
		kcli.Exit(kcli.SchemeLoad, err)
	}

	scheme, err := kscheme.Prepare(img)
	if err != nil {
		kcli.Exit(kcli.SchemeLoad, err)
	}
	defer scheme.Fini()

	os.Remove(cfg.Socket)
	ln, err := net.Listen("unix", cfg.Socket)
	if err != nil {
		kcli.Exit(kcli.SocketError, err)
	}
	defer ln.Close()

	log.WithField("socket", cfg.Socket).Info("klishd listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.WithError(err).Error("accept failed")
			continue
		}
		go serveClient(conn, scheme, log, flagDryRun, flagStartView, cfg.CancelGraceSeconds)
	}
}

func serveClient(conn net.Conn, scheme *kscheme.Scheme, log *logrus.Entry, dryRun bool, startView string, cancelGrace int) {
	defer conn.Close()

	sess, err := ksession.New(scheme, startView, dryRun)
	if err != nil {
		log.WithError(err).Error("session start failed")
		return
	}

	if unixConn, ok := conn.(*net.UnixConn); ok {
		if pid, err := peerPID(unixConn); err == nil {
			if id, err := ksession.IdentifyPeer(pid); err == nil {
				sess.SetPeerIdentity(id)
			}
		}
	}

	d := daemon.New(conn, sess, log)
	if cancelGrace > 0 {
		d.CancelGrace = secondsToDuration(cancelGrace)
	}
	d.Serve()
}

// loadScheme reads every configured scheme source and merges them into
// one Image; files ending .dpl are parsed as deploy text, everything
// else as YAML (spec.md §3 merge semantics apply across files too).
func loadScheme(files []string) (kscheme.Image, error) {
	var img kscheme.Image
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return kscheme.Image{}, fmt.Errorf("klishd: read %s: %w", path, err)
		}

		var part kscheme.Image
		if isDeployText(path) {
			part, err = kdeploy.Decode(string(data))
		} else {
			part, err = kyaml.Decode(data)
		}
		if err != nil {
			return kscheme.Image{}, fmt.Errorf("klishd: parse %s: %w", path, err)
		}

		img.Plugins = append(img.Plugins, part.Plugins...)
		img.Ptypes = append(img.Ptypes, part.Ptypes...)
		img.Views = append(img.Views, part.Views...)
	}
	return img, nil
}

func isDeployText(path string) bool {
	return len(path) > 4 && path[len(path)-4:] == ".dpl"
}
