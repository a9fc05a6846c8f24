package cli

import (
	"fmt"

	"github.com/danmuck/takctl/internal/protocol/sidc"
	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <sidc>...",
		Short: "Explain 20-digit symbol identification codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			invalid := 0
			for _, arg := range args {
				code := sidc.Code(arg)
				fields, err := sidc.Decode(code)
				if err != nil {
					invalid++
					fmt.Fprintf(out, "%s\t%s\n", arg, sidc.InvalidDescription)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%s\tcountry=%03d\n",
					arg, sidc.Describe(code), sidc.ToCoTType(code), fields.Country)
			}
			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d codes", sidc.ErrInvalidCode, invalid, len(args))
			}
			return nil
		},
	}
}
