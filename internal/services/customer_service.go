package services

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/validate"
)

// LookupResult never carries a Go error; failures show up in Error.
type LookupResult struct {
	Exists   bool             `json:"exists"`
	Customer *domain.Customer `json:"customer"`
	Error    string           `json:"error,omitempty"`
}

type NewCustomer struct {
	Name     string
	Email    string
	Phone    string
	Location string
	Gender   string
}

// CustomerDirectory resolves customers by normalized phone within one business.
type CustomerDirectory struct {
	store      CustomerStore
	businessID string
}

func NewCustomerDirectory(store CustomerStore, businessID string) *CustomerDirectory {
	return &CustomerDirectory{store: store, businessID: businessID}
}

func (d *CustomerDirectory) Find(ctx context.Context, phone string) LookupResult {
	normalized, err := validate.NormalizePhone(phone)
	if err != nil {
		applog.Warn(nil, "customer.find.invalid_phone", err, nil)
		return LookupResult{Error: "Invalid phone number"}
	}
	c, err := d.store.FindByPhone(ctx, d.businessID, normalized)
	if err != nil {
		applog.Error(nil, "customer.find.fail", err, nil)
		return LookupResult{Error: "Failed to check customer"}
	}
	return LookupResult{Exists: c != nil, Customer: c}
}

// Create returns the stored customer, or nil with the reason. A concurrent
// create for the same phone resolves to the record that won.
func (d *CustomerDirectory) Create(ctx context.Context, nc NewCustomer) (*domain.Customer, error) {
	normalized, err := validate.NormalizePhone(nc.Phone)
	if err != nil {
		applog.Warn(nil, "customer.create.invalid_phone", err, nil)
		return nil, err
	}
	c, err := d.store.Insert(ctx, domain.Customer{
		BusinessID: d.businessID,
		Name:       nc.Name,
		Email:      nc.Email,
		Phone:      normalized,
		Location:   nc.Location,
		Gender:     nc.Gender,
	})
	if err == nil {
		return c, nil
	}
	if existing, ferr := d.store.FindByPhone(ctx, d.businessID, normalized); ferr == nil && existing != nil {
		return existing, nil
	}
	applog.Error(nil, "customer.create.fail", err, nil)
	return nil, fmt.Errorf("create customer: %w", err)
}

// IsInvalidPhone reports whether err came from phone normalization.
func IsInvalidPhone(err error) bool { return errors.Is(err, validate.ErrInvalidPhoneFormat) }
