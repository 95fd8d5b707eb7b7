package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type AddressServiceTestSuite struct {
	dbSuite
	service *AddressService
}

func (s *AddressServiceTestSuite) SetupTest() {
	s.dbSuite.SetupTest()
	s.service = NewAddressService(s.db)
}

var testAddress = models.AddressInput{
	AddressLine1: "1 High Street",
	City:         "Leeds",
	Postcode:     "LS1 1AA",
}

const selectAddress = `SELECT \* FROM "addresses" WHERE \(?"address_line1" = \$1 AND "address_line2" = \$2 AND "city" = \$3 AND "county" = \$4 AND "postcode" = \$5`

func addressRows(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "address_line1", "address_line2", "city", "county", "postcode"}).
		AddRow(id, testAddress.AddressLine1, "", testAddress.City, "", testAddress.Postcode)
}

func (s *AddressServiceTestSuite) TestReconcile_ReusesExistingRow() {
	s.mock.ExpectQuery(selectAddress).
		WithArgs("1 High Street", "", "Leeds", "", "LS1 1AA", 1).
		WillReturnRows(addressRows(5))

	address, err := s.service.Reconcile(s.db, testAddress)
	s.Require().NoError(err)
	s.Equal(uint(5), address.ID)
}

func (s *AddressServiceTestSuite) TestReconcile_CreatesMissingRow() {
	s.mock.ExpectQuery(selectAddress).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.mock.ExpectQuery(`INSERT INTO "addresses" .* ON CONFLICT DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	address, err := s.service.Reconcile(s.db, testAddress)
	s.Require().NoError(err)
	s.Equal(uint(9), address.ID)
	s.Equal("Leeds", address.City)
}

func (s *AddressServiceTestSuite) TestReconcile_ReReadsAfterLosingInsertRace() {
	s.mock.ExpectQuery(selectAddress).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.mock.ExpectQuery(`INSERT INTO "addresses" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.mock.ExpectQuery(selectAddress).WillReturnRows(addressRows(3))

	address, err := s.service.Reconcile(s.db, testAddress)
	s.Require().NoError(err)
	s.Equal(uint(3), address.ID)
}

func (s *AddressServiceTestSuite) TestReconcilePair_SkipsMissingSide() {
	s.mock.ExpectQuery(selectAddress).WillReturnRows(addressRows(5))

	billing, shipping, err := s.service.ReconcilePair(s.db, nil, &testAddress)
	s.Require().NoError(err)
	s.Nil(billing)
	s.Equal(uint(5), shipping.ID)
}

func (s *AddressServiceTestSuite) TestRemoveCustomerAddress_NotLinked() {
	s.mock.ExpectExec(`UPDATE "customers" SET .*CASE WHEN billing_address_id = \$\d+ THEN NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.service.RemoveCustomerAddress(context.Background(), 7, 12)
	appErr, ok := utils.AsAppError(err)
	s.Require().True(ok)
	s.Equal(http.StatusNotFound, appErr.Status)
	s.Equal(MsgAddressNotFound, appErr.Message)
}

func (s *AddressServiceTestSuite) TestRemoveCustomerAddress_Unlinks() {
	s.mock.ExpectExec(`UPDATE "customers" SET .* WHERE id = \$\d+ AND \(billing_address_id = \$\d+ OR shipping_address_id = \$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.service.RemoveCustomerAddress(context.Background(), 7, 12))
}

func TestAddressServiceSuite(t *testing.T) {
	suite.Run(t, new(AddressServiceTestSuite))
}
