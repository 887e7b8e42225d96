package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/dantezy/reactor-sdk/internal/chain"
	"github.com/dantezy/reactor-sdk/internal/config"
	"github.com/dantezy/reactor-sdk/internal/logging"
	"github.com/ethereum/go-ethereum/common"
)

const (
	version = "0.1.0"
	banner  = `
 _   _  ___  _   _  ____ _____
| \ | |/ _ \| \ | |/ ___| ____|
|  \| | | | |  \| | |   |  _|
| |\  | |_| | |\  | |___| |___
|_| \_|\___/|_| \_|\____|_____|

Permit2 Nonce Checker v%s
Check whether swapper nonces have been consumed
`
)

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[nonce] ")

	swapper := flag.String("swapper", "", "swapper address")
	timeout := flag.Duration("timeout", 10*time.Second, "rpc timeout")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: nonce -swapper 0x... NONCE [NONCE...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	fmt.Printf(banner, version)
	fmt.Println(strings.Repeat("-", 60))

	if !common.IsHexAddress(*swapper) || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.RPCURL, common.HexToAddress(cfg.Permit2Address), logger)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	block, err := client.BlockNumber(ctx)
	if err != nil {
		log.Fatalf("failed to get block number: %v", err)
	}
	log.Printf("Swapper: %s", common.HexToAddress(*swapper).Hex())
	log.Printf("Block:   %d", block)
	fmt.Println(strings.Repeat("-", 60))

	maker := common.HexToAddress(*swapper)
	for _, arg := range flag.Args() {
		nonce, ok := new(big.Int).SetString(arg, 0)
		if !ok || nonce.Sign() < 0 {
			log.Printf("%s: not a nonce", arg)
			continue
		}
		used, err := client.IsNonceUsed(ctx, maker, nonce)
		if err != nil {
			log.Printf("%s: lookup failed: %v", arg, err)
			continue
		}
		status := "open"
		if used {
			status = "used"
		}
		log.Printf("%s: %s", nonce, status)
	}
}
