// Package journal persists download and deployment outcomes, so that
// "which bytes reached which router, and were they verified" stays answerable
// after the process exits.
//
// Expected schema (MySQL):
//
//	CREATE TABLE `firmware_journal` (
//	    `id`            BIGINT NOT NULL AUTO_INCREMENT,
//	    `image_id`      VARBINARY(128) NULL,
//	    `image_name`    VARCHAR(255) NOT NULL,
//	    `channel`       VARCHAR(16) NOT NULL,
//	    `expected_hash` VARCHAR(128) NOT NULL DEFAULT '',
//	    `attempts`      INT NOT NULL,
//	    `verified`      TINYINT(1) NOT NULL,
//	    `event`         VARCHAR(16) NOT NULL,
//	    `job_id`        VARCHAR(36) NULL,
//	    `ts`            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    PRIMARY KEY (`id`),
//	    UNIQUE KEY `job_id` (`job_id`)
//	) DEFAULT CHARSET=utf8mb4;
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const tableName = "firmware_journal"

// Journal is the SQL-backed outcome journal.
type Journal struct {
	DB *sqlx.DB
}

// New opens the journal database and verifies it is reachable.
func New(driverName string, dsn string) (*Journal, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, ErrOpen{Err: err}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, ErrPing{Err: err}
	}
	return &Journal{DB: db}, nil
}

// Close releases the database connections.
func (j *Journal) Close() error {
	return j.DB.Close()
}

// RecordDownload journals the outcome of one verified download. The record's
// timestamp is set to now if unset.
func (j *Journal) RecordDownload(ctx context.Context, record *Record) error {
	record.Event = EventDownload
	record.JobID = nil
	return j.insert(ctx, record)
}

// RecordDeploy journals the outcome of one deployment. Each JobID may be
// journaled once; a second insert fails with ErrAlreadyRecorded.
func (j *Journal) RecordDeploy(ctx context.Context, record *Record) error {
	record.Event = EventDeploy
	return j.insert(ctx, record)
}

func (j *Journal) insert(ctx context.Context, record *Record) error {
	if record.TS.IsZero() {
		record.TS = time.Now()
	}

	values, columns, err := valuesAndColumns(record, func(fieldName string) bool {
		// the primary key is assigned by the database
		return fieldName == "ID"
	})
	if err != nil {
		return ErrInsert{Err: err, ImageName: record.ImageName}
	}

	query := "INSERT INTO `" + tableName + "` (" + constructColumns(columns) + ") " +
		"VALUES (" + constructPlaceholders(len(columns)) + ")"
	logger.FromCtx(ctx).Debugf("query:'%s'", query)

	res, err := j.DB.ExecContext(ctx, query, values...)
	if err != nil {
		// MySQL error 1062 is used on duplicate error; the only unique
		// key is the job ID.
		if mysqlErr := asMySQLError(err, 1062); mysqlErr != nil {
			return ErrAlreadyRecorded{Err: mysqlErr, JobID: record.JobID}
		}
		return ErrInsert{Err: err, ImageName: record.ImageName}
	}
	if id, err := res.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

// Find returns the records matching all given filters, oldest first.
func (j *Journal) Find(ctx context.Context, filters ...Filter) ([]Record, error) {
	whereCond, args := Filters(filters).WhereCond()
	query := "SELECT * FROM `" + tableName + "` WHERE " + whereCond + " ORDER BY `id` ASC"
	logger.FromCtx(ctx).Debugf("query:'%s', args:%v", query, args)

	var fetched []Record
	if err := j.DB.SelectContext(ctx, &fetched, query, args...); err != nil {
		return nil, ErrQuery{Err: err, Query: query}
	}

	// WhereCond is allowed to over-select, Match is authoritative.
	records := make([]Record, 0, len(fetched))
	for idx := range fetched {
		record := &fetched[idx]
		// scanning allocates pointer fields even for NULL columns, restore
		// the "no job" representation
		if record.JobID != nil && *record.JobID == uuid.Nil {
			record.JobID = nil
		}
		if Filters(filters).Match(record) {
			records = append(records, *record)
		}
	}
	return records, nil
}

func asMySQLError(err error, errNo uint16) *mysql.MySQLError {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errNo {
		return mysqlErr
	}
	return nil
}
