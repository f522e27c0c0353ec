package types

type GoldType string

type TradeDirection string

type RequestStatus string

const (
	GoldTypeSpot        GoldType = "spot"
	GoldType9999        GoldType = "9999"
	GoldType965         GoldType = "965"
	GoldTypeAssociation GoldType = "association"
)

const (
	TradeDirectionBuy      TradeDirection = "buy"
	TradeDirectionSell     TradeDirection = "sell"
	TradeDirectionWithdraw TradeDirection = "withdraw"
)

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func ParseGoldType(s string) (GoldType, bool) {
	switch GoldType(s) {
	case GoldTypeSpot, GoldType9999, GoldType965, GoldTypeAssociation:
		return GoldType(s), true
	}
	return "", false
}

func AllGoldTypes() []GoldType {
	return []GoldType{GoldTypeSpot, GoldType9999, GoldType965, GoldTypeAssociation}
}
