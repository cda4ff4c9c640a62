package main

import (
	"os"
	"path/filepath"
	"strings"

	"powchain"
	bc "powchain/blockchain"
	"powchain/service"

	"go.dedis.ch/onet/v3/cfgpath"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
	"gopkg.in/urfave/cli.v1"
)

const (
	// DefaultName is the name of the binary we produce and is used to create a directory
	// folder with this name
	DefaultName = "powchain"

	configFileName = "powchain.toml"
)

// getDataPath is a function pointer so that tests can hook and modify this.
var getDataPath = cfgpath.GetDataPath

var gitTag = "dev"

func main() {
	log.ErrFatal(newApp().Run(os.Args))
}

func newApp() *cli.App {
	cliApp := cli.NewApp()
	cliApp.Name = DefaultName
	cliApp.Usage = "Mine and check a proof-of-work hash chain."
	cliApp.Version = gitTag
	cliApp.Commands = cmds
	cliApp.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "debug, d",
			Value: 0,
			Usage: "debug-level: 1 for terse, 5 for maximal",
		},
		cli.StringFlag{
			Name:   "config, c",
			EnvVar: "POWCHAIN_CONFIG",
			Value:  filepath.Join(cfgpath.GetConfigPath(DefaultName), configFileName),
			Usage:  "configuration file",
		},
		cli.StringFlag{
			Name:  "datadir",
			Usage: "directory of the archive, overrides the configuration",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "archive backend: file, bolt or leveldb, overrides the configuration",
		},
		cli.StringFlag{
			Name:  "chain",
			Usage: "name of the chain, overrides the configuration",
		},
	}
	cliApp.Before = func(c *cli.Context) error {
		log.SetDebugVisible(c.Int("debug"))
		return nil
	}
	return cliApp
}

// readConfig loads the configuration file and applies the global flags on
// top of it. The result is checked once, after the overrides.
func readConfig(c *cli.Context) (service.Config, error) {
	path := c.GlobalString("config")
	config, err := service.ReadConfig(path)
	if err != nil {
		return service.Config{}, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		config.DataDir = getDataPath(DefaultName)
	}
	if c.GlobalIsSet("datadir") {
		config.DataDir = c.GlobalString("datadir")
	}
	if c.GlobalIsSet("backend") {
		config.Backend = c.GlobalString("backend")
	}
	if c.GlobalIsSet("chain") {
		config.DefaultChain = c.GlobalString("chain")
	}
	if !c.GlobalIsSet("debug") && config.Debug > 0 {
		log.SetDebugVisible(config.Debug)
	}
	return config, config.Check()
}

// withClient opens the service, hands a client on the selected chain to fn
// and closes the service again.
func withClient(c *cli.Context, fn func(*powchain.Client) error) error {
	config, err := readConfig(c)
	if err != nil {
		return err
	}
	s, err := service.New(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Error("Closing archive:", err)
		}
	}()
	return fn(powchain.NewClient(s, config.DefaultChain))
}

// Write a configuration file with the defaults and the given flags.
func initConfig(c *cli.Context) error {
	path := c.GlobalString("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return xerrors.Errorf("%s exists, use --force to overwrite it", path)
	}
	config, err := readConfig(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return xerrors.Errorf("creating config dir: %w", err)
	}
	if err := config.Save(path); err != nil {
		return err
	}
	log.Info("Wrote configuration to", path)
	return nil
}

// Mine one block for every argument.
func appendBlocks(c *cli.Context) error {
	if c.NArg() < 1 {
		return xerrors.New("please give the following arguments: " +
			"payload [payload]...")
	}
	return withClient(c, func(client *powchain.Client) error {
		for _, payload := range c.Args() {
			if err := client.Append(payload); err != nil {
				return xerrors.Errorf("couldn't append %q: %w", payload, err)
			}
			latest, err := client.Latest()
			if err != nil {
				return err
			}
			log.Infof("Mined block %d: %s", latest.Index(), latest.Hash())
		}
		return nil
	})
}

func showBlock(c *cli.Context) error {
	hash := strings.ToLower(strings.TrimPrefix(c.String("hash"), "0x"))
	index := c.Int("index")
	if index >= 0 && hash != "" {
		return xerrors.New("use either --index or --hash")
	}

	return withClient(c, func(client *powchain.Client) error {
		var block *bc.Block
		var err error
		switch {
		case hash != "":
			block, err = findBlock(client, hash)
		case index >= 0:
			block, err = client.Block(index)
		default:
			block, err = client.Latest()
			if err == nil && block == nil {
				err = xerrors.Errorf("chain %s is empty", client.Name())
			}
		}
		if err != nil {
			return xerrors.Errorf("couldn't get block: %w", err)
		}
		log.Infof("%s", block.String())
		return nil
	})
}

func findBlock(client *powchain.Client, hash string) (*bc.Block, error) {
	blocks, err := client.Blocks()
	if err != nil {
		return nil, err
	}
	for _, block := range blocks {
		if block.Hash() == hash {
			return block, nil
		}
	}
	return nil, xerrors.Errorf("no block with hash %s", hash)
}

func listBlocks(c *cli.Context) error {
	return withClient(c, func(client *powchain.Client) error {
		blocks, err := client.Blocks()
		if err != nil {
			return err
		}
		for _, block := range blocks {
			log.Infof("%d\t%s\t%s", block.Index(), block.Hash(), block.Payload())
		}
		return nil
	})
}

// Exits with an error if a link is broken.
func validateChain(c *cli.Context) error {
	return withClient(c, func(client *powchain.Client) error {
		valid, err := client.Valid()
		if err != nil {
			return err
		}
		if !valid {
			return xerrors.Errorf("chain %s: %w", client.Name(), bc.ErrInvalidChain)
		}
		log.Info("Chain", client.Name(), "is valid")
		return nil
	})
}

// Runs every check and exits with an error if one of them fails.
func auditChain(c *cli.Context) error {
	return withClient(c, func(client *powchain.Client) error {
		status, err := client.Status()
		if err != nil {
			return err
		}
		log.Infof("Chain: %s\n\tBlocks: %d\n\tLatest: %s\n\tBlock cycle: %s",
			status.Name, status.Length, status.LatestHash, status.BlockCycle)
		if len(status.BrokenLinks) > 0 {
			log.Warn("Broken links at", status.BrokenLinks)
		}
		if len(status.InvalidProofs) > 0 {
			log.Warn("Invalid proof-of-work at", status.InvalidProofs)
		}
		if len(status.MisplacedIndices) > 0 {
			log.Warn("Misplaced indices at", status.MisplacedIndices)
		}
		if !status.Sound() {
			return xerrors.Errorf("chain %s: %w", status.Name, bc.ErrInvalidChain)
		}
		log.Info("Chain", status.Name, "passed every check")
		return nil
	})
}

func refreshChain(c *cli.Context) error {
	return withClient(c, func(client *powchain.Client) error {
		if err := client.Refresh(); err != nil {
			return err
		}
		log.Warn("Relinked", client.Name(), "without mining, run audit to check the proof-of-work")
		return nil
	})
}

func exportChain(c *cli.Context) error {
	if c.NArg() != 1 {
		return xerrors.New("please give the file to export to")
	}
	return withClient(c, func(client *powchain.Client) error {
		return client.Export(c.Args().First())
	})
}

func importChain(c *cli.Context) error {
	if c.NArg() != 1 {
		return xerrors.New("please give the file to import from")
	}
	return withClient(c, func(client *powchain.Client) error {
		if err := client.Import(c.Args().First()); err != nil {
			return err
		}
		blocks, err := client.Blocks()
		if err != nil {
			return err
		}
		log.Info("Imported", len(blocks), "blocks into", client.Name())
		return nil
	})
}

func listChains(c *cli.Context) error {
	config, err := readConfig(c)
	if err != nil {
		return err
	}
	s, err := service.New(config)
	if err != nil {
		return err
	}
	defer s.Close()
	names, err := s.Chains()
	if err != nil {
		return err
	}
	for _, name := range names {
		log.Info(name)
	}
	return nil
}
