package domain

import "github.com/draftea/order-system/shared/models"

func refOf(s string) models.Ref {
	return models.Ref(s)
}
