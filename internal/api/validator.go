package api

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
)

// ValidationError はリクエストの検証エラー
// Fields はJSONのフィールド名から失敗したルール名への対応
type ValidationError struct {
	Code   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "リクエストが不正です"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("リクエストが不正です: %s", strings.Join(names, ", "))
}

// CustomValidator はEcho用のカスタムバリデーター
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	// 予約枚数は 1..10
	if err := v.RegisterValidation("ticket_quantity", func(fl validator.FieldLevel) bool {
		return booking.ValidateQuantity(int(fl.Field().Int())) == nil
	}); err != nil {
		panic(err)
	}
	return &CustomValidator{validator: v}
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Code: CodeValidation}
	}

	ve := &ValidationError{Code: CodeValidation, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = fe.Tag()
		if fe.Tag() == "ticket_quantity" {
			ve.Code = CodeInvalidQuantity
		}
	}
	return ve
}
