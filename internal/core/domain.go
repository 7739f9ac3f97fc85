package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLength    = 255
	maxCategoryLength = 100
	maxNameLength     = 100
	maxEmailLength    = 255
)

type (
	Expense struct {
		ID        int64
		UserID    int64
		Title     string
		Amount    Money
		Category  string // may be empty
		Date      Date
		CreatedAt time.Time
	}

	// ExpenseInput carries the user-editable fields of an expense.
	ExpenseInput struct {
		Title    string
		Amount   Money
		Category string
		Date     Date
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 255 characters)")
	ErrCategoryTooLong = errors.New("category too long (max 100 characters)")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidEmail    = errors.New("invalid email")
)

func (in ExpenseInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if utf8.RuneCountInString(in.Category) > maxCategoryLength {
		return ErrCategoryTooLong
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Input returns the editable part of the expense.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Title:    e.Title,
		Amount:   e.Amount,
		Category: e.Category,
		Date:     e.Date,
	}
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(u.Name) > maxNameLength {
		return fmt.Errorf("%w: too long", ErrEmptyName)
	}
	return ValidateEmail(u.Email)
}

// ValidateEmail performs a shallow syntactic check; deliverability is not our concern.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > maxEmailLength {
		return ErrInvalidEmail
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
