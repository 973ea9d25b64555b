package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	sphinx "github.com/ckocaogullar15/sphinx"
)

// Demo relays. Real deployments derive these from a directory service;
// here they are fixed so "header build" and "header process" can be run
// as separate invocations against the same route.
const (
	bobSecretHex     = "71df4af67d0236f148e8c4d764ead3662693b4561b7bca19c6c7b3d804098fe"
	charlieSecretHex = "3aae4a7a4717e9721b49e8247be4a1280c2d9afad9f011dedc9e3650051c9ae"
	daveSecretHex    = "34df19f85e920cb3a0dd529fd61dace4ac9a567c00c521b98e75762eed06911"
)

var relaySecretHex = map[string]string{
	"bob":     bobSecretHex,
	"charlie": charlieSecretHex,
	"dave":    daveSecretHex,
}

// relayAddress derives a demo routable address from a relay's name, so
// the CLI does not need a directory service to print something for
// "header build" to embed.
func relayAddress(name string) sphinx.Address {
	var a sphinx.Address
	copy(a[:], name)
	return a
}

func relayScalar(name string) (sphinx.Scalar, error) {
	hexKey, ok := relaySecretHex[name]
	if !ok {
		return sphinx.Scalar{}, fmt.Errorf("unknown relay %q", name)
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return sphinx.Scalar{}, err
	}
	var sk sphinx.Scalar
	copy(sk[:], raw)
	return sk, nil
}

func relayNode(name string) (sphinx.Node, error) {
	sk, err := relayScalar(name)
	if err != nil {
		return sphinx.Node{}, err
	}
	pk, err := sphinx.PublicKeyFor(sk)
	if err != nil {
		return sphinx.Node{}, err
	}
	return sphinx.Node{Address: relayAddress(name), PublicKey: pk}, nil
}

func main() {
	app := cli.App{
		Name:  "sphinx",
		Usage: "build and process Sphinx-style onion headers",
		Commands: []*cli.Command{
			headerCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var headerCmd = &cli.Command{
	Name:  "header",
	Usage: "build or process a Sphinx header over the demo route bob -> charlie -> dave",
	Subcommands: []*cli.Command{
		headerBuildCmd,
		headerProcessCmd,
	},
}

var headerBuildCmd = &cli.Command{
	Name:   "build",
	Usage:  "build a header routed through bob, charlie, dave to a fixed destination",
	Action: buildHeader,
}

func buildHeader(ctx *cli.Context) error {
	route := make([]sphinx.Node, 0, 3)
	for _, name := range []string{"bob", "charlie", "dave"} {
		node, err := relayNode(name)
		if err != nil {
			return err
		}
		route = append(route, node)
	}

	delays := sphinx.GenerateFromAverageDuration(len(route), 100*time.Millisecond)

	salts := make([][sphinx.SaltSize]byte, len(route))
	for i := range salts {
		var s [sphinx.SaltSize]byte
		copy(s[:], fmt.Sprintf("demo-salt-hop-%d", i))
		salts[i] = s
	}

	var dest sphinx.Destination
	copy(dest.Address[:], "demo-destination")

	sessionKey, _, err := sphinx.GenerateKeyPair()
	if err != nil {
		return err
	}

	header, payloadKeys, err := sphinx.New(sessionKey, route, delays, salts, dest)
	if err != nil {
		return err
	}

	fmt.Printf("header to pass to first hop (bob): %x\n", header.ToBytes())
	for i, k := range payloadKeys {
		fmt.Printf("payload key for hop %d: %x\n", i+1, k)
	}

	return nil
}

var headerProcessCmd = &cli.Command{
	Name:      "process",
	Usage:     "process a header as one of the demo relays",
	ArgsUsage: "[HEADER_HEX]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "hop",
			Usage: "specify hop (bob, charlie or dave) processing the header",
		},
	},
	Action: processHeader,
}

func processHeader(ctx *cli.Context) error {
	args := ctx.Args()
	if args.Len() < 1 {
		return errors.New("pass a header to process")
	}

	hop := ctx.String("hop")
	sk, err := relayScalar(hop)
	if err != nil {
		return err
	}

	headerBytes, err := hex.DecodeString(args.First())
	if err != nil {
		return fmt.Errorf("error decoding header: %v", err)
	}

	header, err := sphinx.FromBytes(headerBytes)
	if err != nil {
		return err
	}

	result, err := header.Process(sk)
	if err != nil {
		return err
	}

	fmt.Printf("payload key for %v: %x\n", hop, result.PayloadKey)

	switch result.Kind {
	case sphinx.FinalHop:
		fmt.Println("this is the header's final destination")
	case sphinx.ForwardHop:
		fmt.Printf("forward to: %s\n", result.NextAddress)
		fmt.Printf("delay: %s\n", result.Delay.Duration())
		fmt.Printf("header for the next hop: %x\n", result.NextHeader.ToBytes())
	}

	return nil
}
