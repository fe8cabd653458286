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
	"time"

	"github.com/limpehfi/limpeh/model"
	"github.com/spf13/cobra"
)

// accountCommands defines the "account" command, which reads one credit
// account straight from the contract and prints it in display units.
func accountCommands(b *limpehInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account [address]",
		Short: "show the on-chain credit account for an address",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			record, err := b.limpeh.GetAccount(cmd.Context(), args[0], true)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Printf("address:         %s\n", record.Address)
			fmt.Printf("kyc:             %s\n", record.KYC)
			fmt.Printf("active:          %t\n", record.Active)
			fmt.Printf("credit limit:    %s\n", model.FormatDisplay(record.CreditLimit, model.TokenDecimals))
			fmt.Printf("total borrowed:  %s\n", model.FormatDisplay(record.TotalBorrowed, model.TokenDecimals))
			fmt.Printf("total paid:      %s\n", model.FormatDisplay(record.TotalPaid, model.TokenDecimals))
			fmt.Printf("total due:       %s\n", model.FormatDisplay(record.TotalDue, model.TokenDecimals))
			fmt.Printf("late fee:        %s\n", model.FormatDisplay(record.LateFee, model.TokenDecimals))
			fmt.Printf("headroom:        %s\n", model.FormatDisplay(record.Headroom(), model.TokenDecimals))
			fmt.Printf("statement date:  %s\n", time.Unix(record.StatementDate, 0).UTC().Format(time.RFC3339))
			fmt.Printf("due date:        %s\n", time.Unix(record.DueDate, 0).UTC().Format(time.RFC3339))
		},
	}

	return cmd
}
