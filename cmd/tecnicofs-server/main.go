package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tecnicofs/tecnicofs/engine"
	"github.com/tecnicofs/tecnicofs/server"
	"github.com/tecnicofs/tecnicofs/transport"
)

func main() {
	log.SetFlags(log.Lmicroseconds)

	addr := flag.String("addr", ":9000", "address to listen on")
	debug := flag.Bool("debug", false, "print per-request debug tracing")
	workers := flag.Int("workers", 4, "number of concurrent request handlers")
	maxInodes := flag.Int("max-inodes", engine.DefaultMaxInodes, "size of the inode table")
	maxDirEntries := flag.Int("max-dir-entries", engine.DefaultMaxDirEntries, "entries per directory")
	maxFileName := flag.Int("max-file-name", engine.DefaultMaxFileName, "max request path length, including terminator")
	flag.Parse()

	opt := engine.Options{
		MaxInodes:     *maxInodes,
		MaxDirEntries: *maxDirEntries,
		MaxFileName:   *maxFileName,
	}

	sock, err := transport.Listen(*addr)
	if err != nil {
		log.Fatalf("tecnicofs-server: %v", err)
	}

	eng := engine.New(opt)
	srv := server.New(sock, eng, opt, *workers)
	srv.Debug = *debug
	srv.Logger = log.Default()

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sigs
		log.Printf("tecnicofs-server: received %s, shutting down", s)
		cancel()
	}()

	fmt.Printf("tecnicofs-server: listening on %s (%d workers, max-inodes=%d, max-dir-entries=%d, max-file-name=%d)\n",
		sock.LocalAddr(), *workers, opt.MaxInodes, opt.MaxDirEntries, opt.MaxFileName)

	begin := time.Now()
	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("tecnicofs-server: %v", err)
	}
	elapsed := time.Since(begin)

	snap := srv.Counters().Snapshot()
	processed := snap.Created + snap.CreateFailed + snap.Deleted + snap.DeleteFailed +
		snap.Looked + snap.LookupFailed + snap.Moved + snap.MoveFailed +
		snap.Printed + snap.PrintFailed + snap.Malformed
	fmt.Printf("tecnicofs-server: completed in %.4f seconds (%d commands processed)\n",
		elapsed.Seconds(), processed)
}
