// Command journal_schema creates the outcome-journal table. It is meant to
// be run once against a fresh database; re-running it is harmless.
package main

import (
	"context"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"

	"github.com/freifunk-luebeck/fwds/pkg/observability"
)

// the schema the journal package expects, see pkg/journal
const createTableQuery = "CREATE TABLE IF NOT EXISTS `firmware_journal` (" +
	"`id`            BIGINT NOT NULL AUTO_INCREMENT," +
	"`image_id`      VARBINARY(128) NULL," +
	"`image_name`    VARCHAR(255) NOT NULL," +
	"`channel`       VARCHAR(16) NOT NULL," +
	"`expected_hash` VARCHAR(128) NOT NULL DEFAULT ''," +
	"`attempts`      INT NOT NULL," +
	"`verified`      TINYINT(1) NOT NULL," +
	"`event`         VARCHAR(16) NOT NULL," +
	"`job_id`        VARCHAR(36) NULL," +
	"`ts`            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP," +
	"PRIMARY KEY (`id`)," +
	"UNIQUE KEY `job_id` (`job_id`)" +
	") DEFAULT CHARSET=utf8mb4"

func main() {
	logLevel := logger.LevelDebug // the default value
	defaultDSN := (&mysql.Config{
		User:   os.Getenv("DBUSER"),
		Passwd: os.Getenv("DBPASS"),
		Net:    "tcp",
		Addr:   "127.0.0.1:3306",
		DBName: "fwds",
	}).FormatDSN()
	rdbmsDriver := pflag.String("rdbms-driver", "mysql", "")
	rdbmsDSN := pflag.String("rdbms-dsn", defaultDSN, "")
	pflag.Var(&logLevel, "log-level", "logging level")
	pflag.Parse()

	ctx := observability.WithBelt(context.Background(), logLevel, "", true)

	db, err := sqlx.Open(*rdbmsDriver, *rdbmsDSN)
	if err != nil {
		logger.FromCtx(ctx).Panic(err)
	}
	defer func() { _ = db.Close() }()

	logger.FromCtx(ctx).Debugf("query:'%s'", createTableQuery)
	if _, err := db.ExecContext(ctx, createTableQuery); err != nil {
		logger.FromCtx(ctx).Panic(err)
	}
	logger.FromCtx(ctx).Infof("the table 'firmware_journal' is in place")
}
