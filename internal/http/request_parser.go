// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/projection"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads a JSON body of at most 1 MiB into v. Unknown fields are
// rejected.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ParseMonthParam reads a YYYY-MM query parameter, falling back to def when
// it is absent.
func ParseMonthParam(query url.Values, key string, def core.MonthKey) (core.MonthKey, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	return core.ParseMonthKey(v)
}

// ParseSortParams reads sort and order query parameters.
func ParseSortParams(query url.Values) (projection.SortField, projection.SortOrder, error) {
	return projection.ParseSort(query.Get("sort"), query.Get("order"))
}

// ParseBoolParam reads a boolean query parameter; absent means false.
func ParseBoolParam(query url.Values, key string) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// expenseRequest is the create/update body for both expense kinds. Amount
// accepts a JSON number or a numeric string in currency units.
type expenseRequest struct {
	Name          string     `json:"name"`
	Amount        core.Money `json:"amount"`
	Category      string     `json:"category"`
	PaymentMethod string     `json:"paymentMethod"`
	Date          core.Date  `json:"date"`
	DueDate       core.Date  `json:"dueDate"`
	IsPaid        bool       `json:"isPaid"`
	IsRecurring   bool       `json:"isRecurring"`
}

func (req expenseRequest) toExpense(id string, fixed bool) core.Expense {
	e := core.Expense{
		ID:            id,
		Name:          strings.TrimSpace(req.Name),
		Amount:        req.Amount,
		Category:      strings.TrimSpace(req.Category),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		IsFixed:       fixed,
	}
	if fixed {
		e.DueDate = req.DueDate
		e.IsPaid = req.IsPaid
		e.IsRecurring = req.IsRecurring
	} else {
		e.Date = req.Date
	}
	return e
}

type statusRequest struct {
	MonthKey string `json:"monthKey"`
	IsPaid   bool   `json:"isPaid"`
}

type categoryRequest struct {
	Name   string     `json:"name"`
	Budget core.Money `json:"budget"`
	Color  string     `json:"color"`
	Icon   string     `json:"icon"`
}

type paymentMethodRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type shareRequest struct {
	Share float64    `json:"share"`
	Total core.Money `json:"total"`
}

type monthRequest struct {
	MonthKey string `json:"monthKey"`
}

type navigateRequest struct {
	Direction string `json:"direction"`
}

type resetDayRequest struct {
	ResetDay int `json:"resetDay"`
}
