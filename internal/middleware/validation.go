// internal/middleware/validation.go
package middleware

import (
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const (
	MsgMalformedBody        = "Request body must be a JSON object."
	MsgAddressRequired      = "Request must include a billing or shipping address."
	MsgBothAddressesNeeded  = "Request must include billing and shipping addresses."
	MsgAddressFieldsMissing = "Each address must contain at least `addressLine1`, `city` and `postcode`."
	MsgPaymentMethodMissing = "New order must include payment method."
	MsgTotalMissing         = "New order must include total amount."
	MsgTotalNotNumeric      = "Order total must be a number."
	MsgItemProductMissing   = "Order item must contain product id."
	MsgItemQuantityInvalid  = "Order item must contain a valid quantity value (greater than 0)."
	MsgItemProductUnknown   = utils.MsgProductUnknown
	MsgInsufficientStock    = utils.MsgInsufficientStock
)

// FieldRules declares the required fields of a request body, checked in
// order, and the optional fields that must be strings when set.
type FieldRules struct {
	Required []string
	Strings  []string
}

var (
	SignupRules = FieldRules{
		Required: []string{"username", "password", "name", "email"},
		Strings:  []string{"phone", "avatar"},
	}
	LoginRules = FieldRules{
		Required: []string{"username", "password"},
	}
	SSORules = FieldRules{
		Required: []string{"provider", "idToken"},
		Strings:  []string{"name", "thumbnail"},
	}
	CustomerUpdateRules = FieldRules{
		Strings: []string{"name", "username", "email", "password", "phone", "avatar"},
	}
)

// Check reports the first missing required field, then the first set field
// that is not a string. Absent, null, empty, zero and false values count as
// missing.
func (r FieldRules) Check(body map[string]interface{}) error {
	for _, field := range r.Required {
		if !present(body[field]) {
			return utils.ValidationError(utils.MsgMissingFields)
		}
	}

	for _, fields := range [][]string{r.Required, r.Strings} {
		for _, field := range fields {
			v := body[field]
			if !present(v) {
				continue
			}
			if _, ok := v.(string); !ok {
				return utils.ValidationError(utils.MsgFieldsNotStrings)
			}
		}
	}

	return nil
}

// RequireFields validates the JSON body against rules. The body stays
// available to later handlers through ShouldBindBodyWith.
func RequireFields(rules FieldRules) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := JSONBody(c)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		if err := rules.Check(body); err != nil {
			utils.Fail(c, err)
			return
		}
		c.Next()
	}
}

// JSONBody decodes the request body as a JSON object, caching the raw bytes
// on the context. An empty body decodes to an empty object.
func JSONBody(c *gin.Context) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]interface{}{}, nil
		}
		return nil, utils.ValidationError(MsgMalformedBody)
	}
	if body == nil {
		body = map[string]interface{}{}
	}
	return body, nil
}

// AddressRequirement selects which addresses a submission must carry.
type AddressRequirement int

const (
	// AtLeastOneAddress accepts a billing address, a shipping address or both.
	AtLeastOneAddress AddressRequirement = iota
	// BothAddresses requires billing and shipping addresses.
	BothAddresses
)

// AddressSubmission holds the normalized addresses of a request.
type AddressSubmission struct {
	Billing  *models.AddressInput
	Shipping *models.AddressInput
}

var (
	requiredAddressFields = []string{"addressLine1", "city", "postcode"}
	acceptedAddressFields = []string{"addressLine1", "addressLine2", "city", "county", "postcode"}
)

// ParseAddresses validates the billingAddress and shippingAddress members
// of body and maps them to AddressInput values. Unknown address fields are
// dropped.
func ParseAddresses(body map[string]interface{}, requirement AddressRequirement) (AddressSubmission, error) {
	billing, shipping := body["billingAddress"], body["shippingAddress"]

	switch requirement {
	case BothAddresses:
		if !present(billing) || !present(shipping) {
			return AddressSubmission{}, utils.ValidationError(MsgBothAddressesNeeded)
		}
	default:
		if !present(billing) && !present(shipping) {
			return AddressSubmission{}, utils.ValidationError(MsgAddressRequired)
		}
	}

	var submitted []map[string]interface{}
	for _, raw := range []interface{}{billing, shipping} {
		if !present(raw) {
			submitted = append(submitted, nil)
			continue
		}
		fields, ok := raw.(map[string]interface{})
		if !ok || !hasKeys(fields, requiredAddressFields) {
			return AddressSubmission{}, utils.ValidationError(MsgAddressFieldsMissing)
		}
		submitted = append(submitted, fields)
	}

	for _, fields := range submitted {
		if err := checkAddressValues(fields); err != nil {
			return AddressSubmission{}, err
		}
	}

	var result AddressSubmission
	if submitted[0] != nil {
		in := NormalizeAddress(submitted[0])
		result.Billing = &in
	}
	if submitted[1] != nil {
		in := NormalizeAddress(submitted[1])
		result.Shipping = &in
	}
	return result, nil
}

func checkAddressValues(fields map[string]interface{}) error {
	if fields == nil {
		return nil
	}
	for _, name := range acceptedAddressFields {
		v, exists := fields[name]
		if !exists {
			continue
		}
		s, ok := v.(string)
		if !ok {
			if v == nil && !isRequiredAddressField(name) {
				continue
			}
			return utils.ValidationError(utils.MsgFieldsNotStrings)
		}
		if strings.TrimSpace(s) == "" {
			return utils.ValidationError(utils.MsgBlankFields)
		}
	}
	return nil
}

// NormalizeAddress copies the accepted address fields out of fields,
// trimming surrounding whitespace. Values are expected to have passed
// ParseAddresses.
func NormalizeAddress(fields map[string]interface{}) models.AddressInput {
	get := func(name string) string {
		s, _ := fields[name].(string)
		return strings.TrimSpace(s)
	}

	return models.AddressInput{
		AddressLine1: get("addressLine1"),
		AddressLine2: get("addressLine2"),
		City:         get("city"),
		County:       get("county"),
		Postcode:     get("postcode"),
	}
}

const addressesKey = "addresses"

// ValidateAddresses parses the addresses of the JSON body and attaches them
// to the context.
func ValidateAddresses(requirement AddressRequirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := JSONBody(c)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		addresses, err := ParseAddresses(body, requirement)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		c.Set(addressesKey, addresses)
		c.Next()
	}
}

func Addresses(c *gin.Context) (AddressSubmission, bool) {
	if v, exists := c.Get(addressesKey); exists {
		if addresses, ok := v.(AddressSubmission); ok {
			return addresses, true
		}
	}
	return AddressSubmission{}, false
}

// PaymentInput is the payment part of a new order.
type PaymentInput struct {
	Method string
	Total  decimal.Decimal
}

func ParsePayment(body map[string]interface{}) (PaymentInput, error) {
	method, total := body["paymentMethod"], body["total"]

	if !present(method) {
		return PaymentInput{}, utils.ValidationError(MsgPaymentMethodMissing)
	}
	if !present(total) {
		return PaymentInput{}, utils.ValidationError(MsgTotalMissing)
	}

	methodStr, ok := method.(string)
	if !ok {
		return PaymentInput{}, utils.ValidationError(utils.MsgFieldsNotStrings)
	}

	var amount decimal.Decimal
	switch t := total.(type) {
	case float64:
		amount = decimal.NewFromFloat(t)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return PaymentInput{}, utils.ValidationError(MsgTotalNotNumeric)
		}
		amount = d
	default:
		return PaymentInput{}, utils.ValidationError(MsgTotalNotNumeric)
	}
	if !amount.IsPositive() {
		return PaymentInput{}, utils.ValidationError(MsgTotalNotNumeric)
	}

	return PaymentInput{Method: strings.TrimSpace(methodStr), Total: amount.Round(2)}, nil
}

// ProductLookup fetches a product by id. It returns nil without an error
// when the product does not exist.
type ProductLookup interface {
	FindProduct(ctx context.Context, id uint) (*models.Product, error)
}

// ParseOrderItem validates the optional single item of a new order against
// current stock. It returns nil when the body carries no item.
func ParseOrderItem(ctx context.Context, body map[string]interface{}, products ProductLookup) (*models.LineItem, error) {
	raw := body["item"]
	if !present(raw) {
		return nil, nil
	}

	item, ok := raw.(map[string]interface{})
	if !ok {
		return nil, utils.ValidationError(MsgItemProductMissing)
	}

	if !present(item["productId"]) {
		return nil, utils.ValidationError(MsgItemProductMissing)
	}

	quantity, ok := positiveInt(item["quantity"])
	if !ok {
		return nil, utils.ValidationError(MsgItemQuantityInvalid)
	}

	productID, ok := positiveInt(item["productId"])
	if !ok {
		return nil, utils.NotFoundError(MsgItemProductUnknown)
	}

	product, err := products.FindProduct(ctx, uint(productID))
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, utils.NotFoundError(MsgItemProductUnknown)
	}
	if quantity > product.Stock {
		return nil, utils.ValidationError(MsgInsufficientStock)
	}

	return &models.LineItem{ProductID: product.ID, Quantity: quantity}, nil
}

// OrderSubmission is a validated new order request.
type OrderSubmission struct {
	Addresses AddressSubmission
	Payment   PaymentInput
	Item      *models.LineItem
}

const orderSubmissionKey = "order_submission"

// ValidateNewOrder runs the address, payment and item checks for order
// creation, in that order, and attaches the result to the context.
func ValidateNewOrder(products ProductLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := JSONBody(c)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		addresses, err := ParseAddresses(body, BothAddresses)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		payment, err := ParsePayment(body)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		item, err := ParseOrderItem(c.Request.Context(), body, products)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		c.Set(orderSubmissionKey, OrderSubmission{Addresses: addresses, Payment: payment, Item: item})
		c.Next()
	}
}

func NewOrderSubmission(c *gin.Context) (OrderSubmission, bool) {
	if v, exists := c.Get(orderSubmissionKey); exists {
		if submission, ok := v.(OrderSubmission); ok {
			return submission, true
		}
	}
	return OrderSubmission{}, false
}

// present mirrors JSON truthiness: null, "", 0 and false are absent.
func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case bool:
		return t
	default:
		return true
	}
}

func positiveInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n > 0 && n == math.Trunc(n) && n <= math.MaxInt32 {
			return int(n), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && i > 0 {
			return i, true
		}
	}
	return 0, false
}

func hasKeys(fields map[string]interface{}, keys []string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}

func isRequiredAddressField(name string) bool {
	for _, f := range requiredAddressFields {
		if f == name {
			return true
		}
	}
	return false
}

