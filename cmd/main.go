/*
Copyright 2025 LimpehFi Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/limpehfi/limpeh"
	"github.com/limpehfi/limpeh/chain"
	"github.com/limpehfi/limpeh/config"
	"github.com/limpehfi/limpeh/internal/notification"
	"github.com/limpehfi/limpeh/worldid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Limpeh represents the CLI application, encapsulating the root Cobra command.
type Limpeh struct {
	cmd *cobra.Command
}

// limpehInstance holds the service instance and its configuration, shared by
// all subcommands.
type limpehInstance struct {
	limpeh *limpeh.Limpeh
	cnf    *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the service instance
// before running any command.
func preRun(app *limpehInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("limpeh.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newLimpeh, err := setupLimpeh(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.limpeh = newLimpeh
		app.cnf = cnf

		return nil
	}
}

// setupLimpeh wires the service against the configured chain and the World ID
// cloud verifier.
func setupLimpeh(cfg *config.Configuration) (*limpeh.Limpeh, error) {
	gateway, err := chain.NewEthGateway(cfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to chain: %v", err)
	}

	verifier := worldid.NewClient(cfg.WorldID)

	newLimpeh, err := limpeh.NewLimpeh(gateway, verifier)
	if err != nil {
		return nil, fmt.Errorf("error creating limpeh: %v", err)
	}
	return newLimpeh, nil
}

// NewCLI creates the command-line interface for the service. It sets up the
// root command and the server, worker, deploy, and account subcommands.
func NewCLI() *Limpeh {
	var configFile string
	b := &limpehInstance{}

	var rootCmd = &cobra.Command{
		Use:   "limpeh",
		Short: "Uncollateralized lending service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./limpeh.json", "Configuration file for the lending service")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(deployCommands(b))
	rootCmd.AddCommand(accountCommands(b))

	return &Limpeh{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w Limpeh) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
