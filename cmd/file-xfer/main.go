package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net"
	"os"
	"path/filepath"
	"time"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/filewire/filewire/blobstore"
	"github.com/filewire/filewire/fileserver"
	"github.com/filewire/filewire/kcpconn"
)

func main() {
	var (
		// server mode:
		serveFlag = flag.String("serve", "", "serve files (directory)")
		// client modes:
		getFlag  = flag.String("get", "", "fetch the named remote file")
		sendFlag = flag.String("send", "", "upload a local file")
		nameFlag = flag.String("name", "", "remote name for -send (defaults to the local file name)")
		outFlag  = flag.String("o", "", "output path for -get (defaults to the remote name)")
		// common flags:
		addrFlag    = flag.String("addr", ":7001", "listen/connect address")
		kcpFlag     = flag.Bool("kcp", false, "use KCP over UDP instead of TCP")
		timeoutFlag = flag.Duration("timeout", 30*time.Second, "per-operation I/O timeout")
		verbosity   = flag.Int("verbosity", 3, "log verbosity (0-5)")
	)
	flag.Parse()

	h := ethlog.LvlFilterHandler(ethlog.Lvl(*verbosity), ethlog.StreamHandler(os.Stderr, ethlog.TerminalFormat(true)))
	ethlog.Root().SetHandler(h)

	switch {
	case *serveFlag != "":
		runServer(*serveFlag, *addrFlag, *kcpFlag, *timeoutFlag)
	case *sendFlag != "":
		name := *nameFlag
		if name == "" {
			name = filepath.Base(*sendFlag)
		}
		runSend(*addrFlag, *kcpFlag, *timeoutFlag, *sendFlag, name)
	case *getFlag != "":
		out := *outFlag
		if out == "" {
			out = filepath.Base(*getFlag)
		}
		runGet(*addrFlag, *kcpFlag, *timeoutFlag, *getFlag, out)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runServer(dir, addr string, useKCP bool, timeout time.Duration) {
	dirinfo, err := os.Stat(dir)
	if err != nil {
		log.Fatalf("can't open -serve directory: %v", err)
	}
	if !dirinfo.IsDir() {
		log.Fatalf("-serve path is not a directory")
	}

	ln, err := listen(addr, useKCP)
	if err != nil {
		log.Fatalf("can't listen: %v", err)
	}
	srv := fileserver.NewServer(fileserver.Config{
		Store:        blobstore.NewDirStore(dir),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	ethlog.Info("Server listening", "addr", ln.Addr(), "dir", dir)
	if err := srv.Serve(ln); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runSend(addr string, useKCP bool, timeout time.Duration, path, name string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("can't open file: %v", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		log.Fatalf("can't stat file: %v", err)
	}
	if stat.Size() > math.MaxUint32 {
		log.Fatalf("file too large for the length frame (%d bytes)", stat.Size())
	}

	client := newClient(useKCP, timeout)
	start := time.Now()
	if err := client.Send(context.Background(), addr, name, uint32(stat.Size()), f); err != nil {
		log.Fatalf("send error: %v", err)
	}
	fmt.Printf("sent %s (%d bytes) in %v\n", name, stat.Size(), time.Since(start))
}

func runGet(addr string, useKCP bool, timeout time.Duration, name, out string) {
	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("can't create output file: %v", err)
	}
	defer f.Close()

	client := newClient(useKCP, timeout)
	start := time.Now()
	n, err := client.Get(context.Background(), addr, name, f)
	if err != nil {
		os.Remove(out)
		log.Fatalf("get error: %v", err)
	}
	fmt.Printf("received %s (%d bytes) in %v\n", out, n, time.Since(start))
}

func listen(addr string, useKCP bool) (net.Listener, error) {
	if useKCP {
		return kcpconn.Listen(addr)
	}
	return net.Listen("tcp", addr)
}

func newClient(useKCP bool, timeout time.Duration) *fileserver.Client {
	cfg := fileserver.ClientConfig{Timeout: timeout}
	if useKCP {
		cfg.Dial = func(ctx context.Context, addr string) (net.Conn, error) {
			return kcpconn.Dial(addr)
		}
	}
	return fileserver.NewClient(cfg)
}
