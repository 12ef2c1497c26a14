package models

import (
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

func sideFromString(s string) types.OrderSide {
	return types.OrderSide(s)
}

func typeFromString(s string) types.OrderType {
	return types.OrderType(s)
}

func tifFromString(s string) types.TimeInForce {
	return types.TimeInForce(s)
}

func statusFromString(s string) types.OrderStatus {
	return types.OrderStatus(s)
}
