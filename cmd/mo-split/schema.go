// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matrixorigin/rowsplit/pkg/rowsplit/domain"
	"github.com/matrixorigin/rowsplit/pkg/vm/engine"
	"github.com/matrixorigin/rowsplit/pkg/vm/process"
)

type schemaArg struct {
	rowIDColumn string
	domains     bool

	input string
	out   io.Writer
}

func (arg *schemaArg) PrepareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema INPUT",
		Short: "Print the columns of an input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := arg.FromCommand(cmd, args); err != nil {
				return err
			}
			return arg.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&arg.rowIDColumn, "row-id-column", "", "string column holding the row identifiers")
	cmd.Flags().BoolVar(&arg.domains, "domains", false, "scan the input and print the column domains")
	return cmd
}

func (arg *schemaArg) FromCommand(cmd *cobra.Command, args []string) error {
	arg.input = args[0]
	arg.out = cmd.OutOrStdout()
	return nil
}

func (arg *schemaArg) String() string {
	return "schema of " + arg.input
}

func (arg *schemaArg) Run(ctx context.Context) error {
	ds, err := openInput(ctx, arg.input, arg.rowIDColumn)
	if err != nil {
		return err
	}
	defer engine.Release(ds)

	schema := ds.Schema()
	if arg.domains {
		proc := process.New(ctx, nil).WithJob(arg.input)
		defer proc.Cancel()
		if schema, err = domain.Refresh(proc, ds); err != nil {
			return err
		}
	}

	fmt.Fprintf(arg.out, "%s: %d rows\n", arg.input, ds.Rows())
	if schema.RowIDName != "" {
		fmt.Fprintf(arg.out, "row ids: %s\n", schema.RowIDName)
	}
	w := tabwriter.NewWriter(arg.out, 0, 4, 2, ' ', 0)
	if arg.domains {
		fmt.Fprintln(w, "COLUMN\tTYPE\tLOWER\tUPPER\tNULLS\tDISTINCT")
	} else {
		fmt.Fprintln(w, "COLUMN\tTYPE")
	}
	for _, attr := range schema.Attrs {
		if !arg.domains {
			fmt.Fprintf(w, "%s\t%s\n", attr.Name, attr.Type)
			continue
		}
		d := attr.Domain
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%d\t%d\n",
			attr.Name, attr.Type, d.Lower, d.Upper, d.NullCount, d.DistinctEstimate)
	}
	return w.Flush()
}
