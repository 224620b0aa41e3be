package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/agrahamlincoln/cogit/internal/sync"
)

// StatusCmd reports how the vault relates to its remote.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run(globals *CLI, logger *zap.Logger) error {
	v, err := openVault(globals, logger, "status")
	if err != nil {
		return err
	}
	defer v.Close()

	v.showStatus()
	return nil
}

// showStatus runs a status check, records it and prints it.
func (v *vault) showStatus() sync.StatusResult {
	res := v.coord.CheckStatus()
	_ = v.journal.LogStatus(res.State.String(), res.Message)
	renderStatus(os.Stdout, res)
	return res
}
