package store

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"commute-ledger/internal/models"
	"commute-ledger/pkg/errors"
	"commute-ledger/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS toll_records (
	id             TEXT PRIMARY KEY,
	entry_datetime TEXT NOT NULL,
	exit_datetime  TEXT NOT NULL,
	entry_ic       TEXT NOT NULL,
	exit_ic        TEXT NOT NULL,
	toll_fee       INTEGER NOT NULL,
	actual_payment INTEGER NOT NULL,
	discount_type  TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refueling_entries (
	id              TEXT PRIMARY KEY,
	date            TEXT NOT NULL,
	odometer        INTEGER NOT NULL,
	liters          TEXT NOT NULL,
	amount          INTEGER NOT NULL,
	station         TEXT NOT NULL DEFAULT '',
	unit_price      TEXT,
	distance        INTEGER,
	fuel_efficiency TEXT
);

CREATE TABLE IF NOT EXISTS monthly_records (
	year_month      TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	distance_km     INTEGER NOT NULL,
	fuel_liters     TEXT NOT NULL,
	fuel_amount     INTEGER NOT NULL,
	fuel_efficiency TEXT
);

CREATE TABLE IF NOT EXISTS allowance_history (
	effective_date TEXT PRIMARY KEY,
	amount         INTEGER NOT NULL
);
`

// SQLite is a Store backed by a single SQLite database file. The driver is
// pure Go, so the binary stays cgo-free.
type SQLite struct {
	db     *sql.DB
	logger logger.Logger
}

// OpenSQLite opens (creating if necessary) the database at path and
// bootstraps the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreUnavailable, "database", err).
			WithContext("path", path)
	}

	// One writer at a time matches the single-user model and avoids
	// SQLITE_BUSY on concurrent connection use within a process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.StoreError(errors.CodeStoreUnavailable, "schema", err).
			WithContext("path", path)
	}

	return &SQLite{
		db:     db,
		logger: logger.GetGlobalLogger().WithComponent("sqlite_store"),
	}, nil
}

// Close releases the underlying database handle
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadTollRecords loads all toll usage records
func (s *SQLite) LoadTollRecords() ([]*models.TollRecord, error) {
	rows, err := s.db.Query(`SELECT id, entry_datetime, exit_datetime, entry_ic, exit_ic,
		toll_fee, actual_payment, discount_type, status
		FROM toll_records ORDER BY entry_datetime, entry_ic, exit_ic`)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreReadFailed, "toll_records", err)
	}
	defer rows.Close()

	var records []*models.TollRecord
	for rows.Next() {
		var r models.TollRecord
		var entryTime, exitTime, discount, status string
		if err := rows.Scan(&r.ID, &entryTime, &exitTime, &r.EntryIC, &r.ExitIC,
			&r.TollFee, &r.ActualPayment, &discount, &status); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "toll_records", err)
		}

		if r.EntryTime, err = time.Parse(models.TimeLayout, entryTime); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "toll_records", err).
				WithContext("value", entryTime)
		}
		if r.ExitTime, err = time.Parse(models.TimeLayout, exitTime); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "toll_records", err).
				WithContext("value", exitTime)
		}
		r.Discount = models.DiscountType(discount)
		r.Status = models.RecordStatus(status)

		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError(errors.CodeStoreReadFailed, "toll_records", err)
	}

	return records, nil
}

// SaveTollRecords replaces all toll usage records in one transaction
func (s *SQLite) SaveTollRecords(records []*models.TollRecord) error {
	return s.replace("toll_records", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO toll_records
			(id, entry_datetime, exit_datetime, entry_ic, exit_ic, toll_fee, actual_payment, discount_type, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			_, err := stmt.Exec(r.ID,
				r.EntryTime.Format(models.TimeLayout), r.ExitTime.Format(models.TimeLayout),
				r.EntryIC, r.ExitIC, r.TollFee, r.ActualPayment, string(r.Discount), string(r.Status))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadRefuelingEntries loads all refueling entries
func (s *SQLite) LoadRefuelingEntries() ([]*models.RefuelingEntry, error) {
	rows, err := s.db.Query(`SELECT id, date, odometer, liters, amount, station,
		unit_price, distance, fuel_efficiency
		FROM refueling_entries ORDER BY date, odometer`)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreReadFailed, "refueling_entries", err)
	}
	defer rows.Close()

	var entries []*models.RefuelingEntry
	for rows.Next() {
		var e models.RefuelingEntry
		var date, liters string
		var unitPrice, efficiency sql.NullString
		var distance sql.NullInt64
		if err := rows.Scan(&e.ID, &date, &e.Odometer, &liters, &e.Amount, &e.Station,
			&unitPrice, &distance, &efficiency); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "refueling_entries", err)
		}

		if e.Date, err = time.Parse(models.DateLayout, date); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "refueling_entries", err).
				WithContext("value", date)
		}
		if e.Liters, err = decimal.NewFromString(liters); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "refueling_entries", err).
				WithContext("value", liters)
		}
		if e.UnitPrice, err = nullDecimal(unitPrice); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "refueling_entries", err).
				WithContext("value", unitPrice.String)
		}
		if e.Efficiency, err = nullDecimal(efficiency); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "refueling_entries", err).
				WithContext("value", efficiency.String)
		}
		if distance.Valid {
			d := int(distance.Int64)
			e.Distance = &d
		}

		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError(errors.CodeStoreReadFailed, "refueling_entries", err)
	}

	return entries, nil
}

// SaveRefuelingEntries replaces all refueling entries in one transaction
func (s *SQLite) SaveRefuelingEntries(entries []*models.RefuelingEntry) error {
	return s.replace("refueling_entries", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO refueling_entries
			(id, date, odometer, liters, amount, station, unit_price, distance, fuel_efficiency)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			var distance interface{}
			if e.Distance != nil {
				distance = *e.Distance
			}
			_, err := stmt.Exec(e.ID, e.Date.Format(models.DateLayout), e.Odometer,
				e.Liters.String(), e.Amount, e.Station,
				decimalValue(e.UnitPrice), distance, decimalValue(e.Efficiency))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadMonthlyRecords loads all monthly records
func (s *SQLite) LoadMonthlyRecords() ([]*models.MonthlyRecord, error) {
	rows, err := s.db.Query(`SELECT year_month, source, distance_km, fuel_liters,
		fuel_amount, fuel_efficiency
		FROM monthly_records ORDER BY year_month`)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreReadFailed, "monthly_records", err)
	}
	defer rows.Close()

	var records []*models.MonthlyRecord
	for rows.Next() {
		var m models.MonthlyRecord
		var source, liters string
		var efficiency sql.NullString
		if err := rows.Scan(&m.YearMonth, &source, &m.DistanceKm, &liters,
			&m.FuelAmount, &efficiency); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "monthly_records", err)
		}

		m.Source = models.MonthlySource(source)
		if m.FuelLiters, err = decimal.NewFromString(liters); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "monthly_records", err).
				WithContext("value", liters)
		}
		if m.FuelEfficiency, err = nullDecimal(efficiency); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "monthly_records", err).
				WithContext("value", efficiency.String)
		}

		records = append(records, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError(errors.CodeStoreReadFailed, "monthly_records", err)
	}

	return records, nil
}

// SaveMonthlyRecords replaces all monthly records in one transaction
func (s *SQLite) SaveMonthlyRecords(records []*models.MonthlyRecord) error {
	return s.replace("monthly_records", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO monthly_records
			(year_month, source, distance_km, fuel_liters, fuel_amount, fuel_efficiency)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range records {
			_, err := stmt.Exec(m.YearMonth, string(m.Source), m.DistanceKm,
				m.FuelLiters.String(), m.FuelAmount, decimalValue(m.FuelEfficiency))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAllowanceHistory loads the allowance history
func (s *SQLite) LoadAllowanceHistory() ([]*models.AllowanceEntry, error) {
	rows, err := s.db.Query(`SELECT effective_date, amount
		FROM allowance_history ORDER BY effective_date`)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreReadFailed, "allowance_history", err)
	}
	defer rows.Close()

	var entries []*models.AllowanceEntry
	for rows.Next() {
		var a models.AllowanceEntry
		var date string
		if err := rows.Scan(&date, &a.Amount); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "allowance_history", err)
		}

		if a.EffectiveDate, err = time.Parse(models.DateLayout, date); err != nil {
			return nil, errors.StoreError(errors.CodeStoreReadFailed, "allowance_history", err).
				WithContext("value", date)
		}

		entries = append(entries, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError(errors.CodeStoreReadFailed, "allowance_history", err)
	}

	return entries, nil
}

// SaveAllowanceHistory replaces the allowance history in one transaction
func (s *SQLite) SaveAllowanceHistory(entries []*models.AllowanceEntry) error {
	return s.replace("allowance_history", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO allowance_history (effective_date, amount) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, a := range entries {
			if _, err := stmt.Exec(a.EffectiveDate.Format(models.DateLayout), a.Amount); err != nil {
				return err
			}
		}
		return nil
	})
}

// replace runs DELETE-then-INSERT for one dataset inside a transaction, so
// a failed save leaves the previous dataset untouched.
func (s *SQLite) replace(table string, insert func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.StoreError(errors.CodeStoreWriteFailed, table, err)
	}

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		tx.Rollback()
		return errors.StoreError(errors.CodeStoreWriteFailed, table, err)
	}

	if err := insert(tx); err != nil {
		tx.Rollback()
		return errors.StoreError(errors.CodeStoreWriteFailed, table, err)
	}

	if err := tx.Commit(); err != nil {
		return errors.StoreError(errors.CodeStoreWriteFailed, table, err)
	}

	s.logger.WithField("dataset", table).Debug("Dataset replaced")
	return nil
}

// nullDecimal converts a nullable TEXT column into an optional decimal
func nullDecimal(value sql.NullString) (*decimal.Decimal, error) {
	if !value.Valid {
		return nil, nil
	}

	d, err := decimal.NewFromString(value.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// decimalValue converts an optional decimal into a driver value
func decimalValue(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
