package utils

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"zone-api/internal/config"
	"zone-api/internal/logger"
)

// OpenPostgres：按配置打开连接池并做一次带超时的 Ping
// 约束：Ping 失败只记录日志，连接池仍返回，由后续查询重试
func OpenPostgres(ctx context.Context, pc config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", pc.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pc.MaxOpenConns)
	db.SetMaxIdleConns(pc.MaxIdleConns)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		logger.L().Error("db_ping_error", "host", pc.Host, "err", err)
	} else {
		logger.L().Info("db_ping_ok", "host", pc.Host, "db", pc.DB)
	}
	return db, nil
}
