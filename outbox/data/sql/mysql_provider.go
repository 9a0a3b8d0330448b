package sql

import (
	"fmt"
	"strings"
)

type MysqlQueryProvider struct {
	Table   string
	Columns []string
}

func (m MysqlQueryProvider) InsertSql() string {
	return fmt.Sprintf("INSERT INTO `%s` (`event_type`, `payload`) VALUES (?, ?)", m.Table)
}

func (m MysqlQueryProvider) BatchCreationSql(batchSize, maxAttempts int) string {
	q := "UPDATE `%s` SET `batch_id` = ?, `claimed_at` = NOW() WHERE `processed` = 0 AND `attempts` < %d AND (`batch_id` IS NULL OR `claimed_at` < ?) ORDER BY `created_at_utc` ASC, `id` ASC LIMIT %d"

	return fmt.Sprintf(q, m.Table, maxAttempts, batchSize)
}

func (m MysqlQueryProvider) BatchFetchSql() string {
	return fmt.Sprintf("SELECT %s FROM `%s` WHERE `batch_id` = ? ORDER BY `created_at_utc` ASC, `id` ASC", strings.Join(m.escapeColumns(), ", "), m.Table)
}

func (m MysqlQueryProvider) RecordsSuccessUpdateSql(idCount int) string {
	q := "UPDATE `%s` SET `processed` = 1, `error_reason` = \"\", `attempts` = `attempts` + 1 WHERE `id` IN (%s)"

	return fmt.Sprintf(q, m.Table, strings.Trim(strings.Repeat("?, ", idCount), ", "))
}

func (m MysqlQueryProvider) RecordErroredUpdateSql() string {
	q := "UPDATE `%s` SET `error_reason` = ?, `batch_id` = NULL, `claimed_at` = NULL, `attempts` = `attempts` + 1 WHERE `id` = ?"

	return fmt.Sprintf(q, m.Table)
}

func (m MysqlQueryProvider) DeleteProcessedSql() string {
	return fmt.Sprintf("DELETE FROM `%s` WHERE `processed` = 1 AND `created_at_utc` <= ?", m.Table)
}

func (m MysqlQueryProvider) GetQueueSizeSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM `%s` WHERE `processed` = 0", m.Table)
}

func (m MysqlQueryProvider) GetTotalSizeSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM `%s`", m.Table)
}

func (m MysqlQueryProvider) escapeColumns() []string {
	var escaped []string
	for _, c := range m.Columns {
		escaped = append(escaped, fmt.Sprintf("`%s`", c))
	}

	return escaped
}
