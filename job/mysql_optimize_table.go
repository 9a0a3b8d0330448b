package job

import (
	"database/sql"
	"fmt"

	"docshelf/event-pipeline/log"
)

type mysqlOptimizeTable struct {
	Db        *sql.DB
	TableName string
	SidecarQuitter
}

func (o *mysqlOptimizeTable) Execute() error {
	logger := log.Logger.WithField("outbox_table", o.TableName)

	_, err := o.Db.Exec(fmt.Sprintf("OPTIMIZE TABLE %s;", o.TableName))

	if err == nil {
		logger.Info("optimized the MySQL outbox table successfully")
	} else {
		logger.WithError(err).Error("an error occurred optimizing the MySQL outbox table")
	}

	if o.QuitSidecar {
		err = o.Quit()
		if err != nil {
			return err
		}
	}

	return err
}
