package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/tecnicofs/tecnicofs/client"
)

func main() {
	log.SetFlags(log.Lmicroseconds)

	addr := flag.String("addr", "127.0.0.1:9000", "server address")
	cmd := flag.String("cmd", "", `single command, e.g. "c /a f"`)
	batch := flag.String("batch", "", "path to a command-file to replay")
	workers := flag.Int("workers", 1, "concurrent connections when running -batch")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "per-request timeout")
	flag.Parse()

	if *cmd == "" && *batch == "" {
		fmt.Fprintln(os.Stderr, "usage: tecnicofs-client -addr host:port (-cmd \"...\" | -batch file)")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *batch != "" {
		f, err := os.Open(*batch)
		if err != nil {
			log.Fatalf("tecnicofs-client: %v", err)
		}
		defer f.Close()
		if err := client.RunBatch(*addr, f, *workers); err != nil {
			log.Fatalf("tecnicofs-client: batch failed: %v", err)
		}
		return
	}

	c, err := client.Dial(*addr)
	if err != nil {
		log.Fatalf("tecnicofs-client: %v", err)
	}
	defer c.Close()
	c.Timeout = *timeout
	c.Logger = log.Default()

	if err := runOne(c, *cmd); err != nil {
		log.Fatalf("tecnicofs-client: %v", err)
	}
}

func runOne(c *client.Client, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "c":
		if len(fields) != 3 {
			return fmt.Errorf("create wants <path> f|d")
		}
		return c.Create(fields[1], fields[2] == "d")
	case "d":
		if len(fields) != 2 {
			return fmt.Errorf("delete wants <path>")
		}
		return c.Delete(fields[1])
	case "l":
		if len(fields) != 2 {
			return fmt.Errorf("lookup wants <path>")
		}
		inumber, err := c.Lookup(fields[1])
		if err != nil {
			return err
		}
		fmt.Println(strconv.Itoa(int(inumber)))
		return nil
	case "m":
		if len(fields) != 3 {
			return fmt.Errorf("move wants <old> <new>")
		}
		return c.Move(fields[1], fields[2])
	case "p":
		if len(fields) != 2 {
			return fmt.Errorf("print wants <out_path>")
		}
		return c.Print(fields[1])
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}
