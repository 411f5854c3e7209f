package dto

import "homepro/internal/domain/shared/money"

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

func amount(v int64, currency string) MoneyDTO {
	return MoneyDTO{Amount: v, Currency: currency}
}
