package job

import (
	"database/sql"
	"fmt"

	"docshelf/event-pipeline/log"
)

type postgresOptimizeTable struct {
	Db        *sql.DB
	TableName string
	SidecarQuitter
}

func (o *postgresOptimizeTable) Execute() error {
	logger := log.Logger.WithField("outbox_table", o.TableName)

	_, err := o.Db.Exec(fmt.Sprintf("VACUUM %s;", o.TableName))

	if err == nil {
		logger.Info("vacuumed the Postgres outbox table successfully")
	} else {
		logger.WithError(err).Error("an error occurred vacuuming the Postgres outbox table")
	}

	if o.QuitSidecar {
		err = o.Quit()
		if err != nil {
			return err
		}
	}

	return err
}
