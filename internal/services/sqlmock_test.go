package services

import (
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dbSuite backs each test with a gorm handle over sqlmock. Statements are
// matched as regular expressions.
type dbSuite struct {
	suite.Suite
	db   *gorm.DB
	mock sqlmock.Sqlmock
}

func (s *dbSuite) SetupTest() {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	s.Require().NoError(err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	s.Require().NoError(err)

	s.db = db
	s.mock = mock
}

func (s *dbSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
