// Package config assembles component configurations for the CLI commands.
package config

import (
	"commute-ledger/internal/balance"
	"commute-ledger/internal/etcparser"
	"commute-ledger/internal/models"
	"commute-ledger/internal/report"
	"commute-ledger/internal/store"
)

// CreateParserConfig builds the ETC parser configuration for an import run.
// The CSV itself carries no billing status; the whole batch is imported as
// tentative unless the user marks it settled.
func CreateParserConfig(finalized bool) *etcparser.Config {
	cfg := etcparser.DefaultConfig()
	if finalized {
		cfg.DefaultStatus = models.StatusFinalized
	}
	return cfg
}

// CreateReportConfig builds the report configuration from CLI flags
func CreateReportConfig(format string, verbose bool) (*report.Config, error) {
	cfg := &report.Config{
		Format:  report.OutputFormat(format),
		Verbose: verbose,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadBalanceInputs loads every dataset a balance computation reads
func LoadBalanceInputs(st store.Store) (*balance.Inputs, error) {
	tollRecords, err := st.LoadTollRecords()
	if err != nil {
		return nil, err
	}

	refuelingEntries, err := st.LoadRefuelingEntries()
	if err != nil {
		return nil, err
	}

	monthlyRecords, err := st.LoadMonthlyRecords()
	if err != nil {
		return nil, err
	}

	allowanceHistory, err := st.LoadAllowanceHistory()
	if err != nil {
		return nil, err
	}

	return &balance.Inputs{
		TollRecords:      tollRecords,
		RefuelingEntries: refuelingEntries,
		MonthlyRecords:   monthlyRecords,
		AllowanceHistory: allowanceHistory,
	}, nil
}
