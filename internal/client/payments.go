package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/models"
	"storefront/internal/seed"
)

// Payment method names as stored in payment_settings
const (
	MethodStcPay       = "STC Pay"
	MethodAlRajhi      = "Al Rajhi"
	MethodVodafoneCash = "Vodafone Cash"
)

// GetPaymentSettings flattens the payment_settings collection. When the API
// cannot be reached the built-in defaults are returned instead.
func (c *Client) GetPaymentSettings(ctx context.Context) (models.PaymentSettings, error) {
	var methods []models.PaymentMethod
	err := c.List(ctx, models.CollectionPaymentSettings, nil, &methods)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) || ctx.Err() != nil {
			return models.PaymentSettings{}, err
		}

		c.log.WithError(err).Warn("Payment settings unavailable, using defaults")
		return defaultPaymentSettings()
	}
	return flattenPaymentMethods(methods), nil
}

// SavePaymentSettings writes each of the three methods, updating the row with
// the same method and currency or creating one
func (c *Client) SavePaymentSettings(ctx context.Context, settings models.PaymentSettings) error {
	var current []models.PaymentMethod
	if err := c.List(ctx, models.CollectionPaymentSettings, nil, &current); err != nil {
		return err
	}

	for _, method := range expandPaymentSettings(settings) {
		existing := findPaymentMethod(current, method.Method, method.Currency)

		var err error
		if existing != nil {
			method.ID = existing.ID
			err = c.Update(ctx, models.CollectionPaymentSettings, method, nil)
		} else {
			err = c.Create(ctx, models.CollectionPaymentSettings, method, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// CheckAdminCredentials reports whether username and password match a stored
// admin credential
func (c *Client) CheckAdminCredentials(ctx context.Context, username, password string) (bool, error) {
	body := models.LoginRequest{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	}

	_, err := c.do(ctx, http.MethodPost, "/api/admin/login", body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func defaultPaymentSettings() (models.PaymentSettings, error) {
	records, err := seed.New().Defaults(models.CollectionPaymentSettings)
	if err != nil {
		return models.PaymentSettings{}, err
	}

	methods := make([]models.PaymentMethod, 0, len(records))
	for _, rec := range records {
		methods = append(methods, models.PaymentMethod{
			ID:            rec.ID(),
			Method:        stringField(rec, "method"),
			AccountNumber: stringField(rec, "account_number"),
			QRURL:         stringField(rec, "qr_url"),
			Currency:      stringField(rec, "currency"),
		})
	}
	return flattenPaymentMethods(methods), nil
}

func flattenPaymentMethods(methods []models.PaymentMethod) models.PaymentSettings {
	var settings models.PaymentSettings
	if m := findPaymentMethod(methods, MethodStcPay, "SAR"); m != nil {
		settings.StcPayNumber = m.AccountNumber
		settings.StcPayQr = m.QRURL
	}
	if m := findPaymentMethod(methods, MethodAlRajhi, "SAR"); m != nil {
		settings.AlRajhiAccount = m.AccountNumber
		settings.AlRajhiQr = m.QRURL
	}
	if m := findPaymentMethod(methods, MethodVodafoneCash, "EGP"); m != nil {
		settings.VodafoneCash = m.AccountNumber
		settings.VodafoneQr = m.QRURL
	}
	return settings
}

func expandPaymentSettings(s models.PaymentSettings) []models.PaymentMethod {
	return []models.PaymentMethod{
		{Method: MethodStcPay, AccountNumber: s.StcPayNumber, QRURL: s.StcPayQr, Currency: "SAR"},
		{Method: MethodAlRajhi, AccountNumber: s.AlRajhiAccount, QRURL: s.AlRajhiQr, Currency: "SAR"},
		{Method: MethodVodafoneCash, AccountNumber: s.VodafoneCash, QRURL: s.VodafoneQr, Currency: "EGP"},
	}
}

func findPaymentMethod(methods []models.PaymentMethod, method, currency string) *models.PaymentMethod {
	for i := range methods {
		if methods[i].Method == method && methods[i].Currency == currency {
			return &methods[i]
		}
	}
	return nil
}

func stringField(rec models.Record, key string) string {
	s, _ := rec[key].(string)
	return s
}
