package root

import (
	"github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/auth"
	"github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/bootstrap"
	leadscmd "github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/leads"
	quicknotescmd "github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/quicknotes"
	"github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/seed"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(seed.Command())
	Root().AddCommand(leadscmd.Command())
	Root().AddCommand(quicknotescmd.Command())
}
