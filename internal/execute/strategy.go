package execute

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	go_ora "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"

	"github.com/mpataki/tada/internal/config"
)

// Strategy is one way of reaching the database.
type Strategy interface {
	Name() string
	Open(ctx context.Context) (*sql.DB, error)
}

type driverStrategy struct {
	name     string
	driver   string
	dsn      string
	maxConns int
}

func (s *driverStrategy) Name() string {
	return s.name
}

// Open returns a pinged handle or closes it again.
func (s *driverStrategy) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, err
	}
	if s.maxConns > 0 {
		db.SetMaxOpenConns(s.maxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Strategies returns the ordered connection strategies for the dialect.
func Strategies(d Dialect, cfg config.DatabaseConfig) []Strategy {
	switch d {
	case DialectMySQL:
		return []Strategy{
			&driverStrategy{name: "tcp", driver: "mysql", dsn: mysqlDSN(cfg, "tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))},
			&driverStrategy{name: "socket", driver: "mysql", dsn: mysqlDSN(cfg, "unix", cfg.Socket)},
		}
	case DialectSQLite:
		// one connection so an in-memory database is shared
		return []Strategy{
			&driverStrategy{name: "file", driver: "sqlite", dsn: cfg.Path, maxConns: 1},
		}
	default:
		return []Strategy{
			&driverStrategy{
				name:   "thin",
				driver: "oracle",
				dsn:    go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Service, cfg.User, cfg.Password, nil),
			},
			&driverStrategy{
				name:   "direct",
				driver: "oracle",
				dsn:    go_ora.BuildUrl(cfg.Host, cfg.Port, "", cfg.User, cfg.Password, map[string]string{"SID": cfg.SID}),
			},
		}
	}
}

func mysqlDSN(cfg config.DatabaseConfig, network, addr string) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = network
	c.Addr = addr
	c.DBName = cfg.Name
	return c.FormatDSN()
}
