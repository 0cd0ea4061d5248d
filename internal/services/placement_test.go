package services

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/models"
)

const testShippingFee = 5.90

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		RecipientName: "Claire Fontaine",
		Phone:         "+33612345678",
		Street:        "12 rue des Lilas",
		City:          "Lyon",
		PostalCode:    "69003",
	}
}

func floatPtr(v float64) *float64 { return &v }

// newPlacementFixture prépare un catalogue à deux produits : un vase sans
// variantes et une écharpe à deux designs (dont un avec prix spécifique)
func newPlacementFixture() (*PlacementService, *fakeStock, *fakeOrders, *fakePayments, models.Product, models.Product) {
	vase := models.Product{
		ID:       gocql.TimeUUID(),
		Name:     "Vase en grès",
		Price:    42.00,
		Stock:    5,
		IsActive: true,
	}
	scarf := models.Product{
		ID:          gocql.TimeUUID(),
		Name:        "Écharpe tissée",
		Price:       35.00,
		Stock:       0,
		IsActive:    true,
		HasVariants: true,
	}
	scarf.Variants = []models.ProductVariant{
		{ProductID: scarf.ID, DesignName: "Terracotta", Stock: 3},
		{ProductID: scarf.ID, DesignName: "Indigo", Price: floatPtr(39.50), Stock: 2},
	}

	stock := newFakeStock()
	stock.set(vase.ID, "", vase.Stock)
	stock.set(scarf.ID, "Terracotta", 3)
	stock.set(scarf.ID, "Indigo", 2)

	orders := newFakeOrders()
	payments := newFakePayments()
	svc := NewPlacementService(newFakeCatalog(vase, scarf), stock, orders, payments, &recordingNotifier{}, testShippingFee)
	return svc, stock, orders, payments, vase, scarf
}

func TestPlaceOrderComputesTotalsAndSnapshots(t *testing.T) {
	svc, stock, orders, payments, vase, scarf := newPlacementFixture()

	order, err := svc.PlaceOrder(context.Background(), "user-1", PlacementInput{
		Items: []PlacementItemInput{
			{ProductID: vase.ID.String(), Quantity: 2},
			{ProductID: scarf.ID.String(), Quantity: 1, VariantName: "Indigo", Customization: "initiales CF"},
		},
		Address:       validAddress(),
		PaymentMethod: models.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	// Total = 2×42.00 + 1×39.50 (prix du design Indigo) + livraison
	assert.InDelta(t, 84.00+39.50+testShippingFee, order.TotalAmount, 0.001)
	assert.Equal(t, testShippingFee, order.ShippingFee)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Regexp(t, `^ATL-\d{8}-[A-HJ-NP-Z2-9]{6}$`, order.OrderNumber)

	// Instantanés de lignes
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Vase en grès", order.Items[0].Name)
	assert.Equal(t, 42.00, order.Items[0].UnitPrice)
	assert.Equal(t, 39.50, order.Items[1].UnitPrice)
	assert.Equal(t, "initiales CF", order.Items[1].Customization)

	// Première entrée du journal
	require.NotEmpty(t, order.StatusHistory)
	assert.Equal(t, models.OrderStatusPending, order.StatusHistory[0].Status)

	// Stock retenu à la bonne granularité
	assert.Equal(t, 3, stock.level(vase.ID, ""))
	assert.Equal(t, 1, stock.level(scarf.ID, "Indigo"))
	assert.Equal(t, 3, stock.level(scarf.ID, "Terracotta"))

	// Paiement semé pour un moyen non-espèces, montant = total commande
	payment, err := payments.GetByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerificationPending, payment.Status)
	assert.InDelta(t, order.TotalAmount, payment.Amount, 0.001)

	stored, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, stored.OrderNumber)
}

func TestPlaceOrderCashOnDeliverySkipsPaymentRecord(t *testing.T) {
	svc, _, _, payments, vase, _ := newPlacementFixture()

	order, err := svc.PlaceOrder(context.Background(), "user-1", PlacementInput{
		Items:         []PlacementItemInput{{ProductID: vase.ID.String(), Quantity: 1}},
		Address:       validAddress(),
		PaymentMethod: models.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)

	_, err = payments.GetByOrder(context.Background(), order.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, _, _, _, vase, scarf := newPlacementFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		in   PlacementInput
	}{
		{
			name: "aucun article",
			in:   PlacementInput{Address: validAddress(), PaymentMethod: models.PaymentMethodLydia},
		},
		{
			name: "moyen de paiement inconnu",
			in: PlacementInput{
				Items:         []PlacementItemInput{{ProductID: vase.ID.String(), Quantity: 1}},
				Address:       validAddress(),
				PaymentMethod: "credit_card",
			},
		},
		{
			name: "adresse incomplète",
			in: PlacementInput{
				Items:         []PlacementItemInput{{ProductID: vase.ID.String(), Quantity: 1}},
				Address:       models.ShippingAddress{RecipientName: "Claire"},
				PaymentMethod: models.PaymentMethodLydia,
			},
		},
		{
			name: "quantité nulle",
			in: PlacementInput{
				Items:         []PlacementItemInput{{ProductID: vase.ID.String(), Quantity: 0}},
				Address:       validAddress(),
				PaymentMethod: models.PaymentMethodLydia,
			},
		},
		{
			name: "produit inconnu",
			in: PlacementInput{
				Items:         []PlacementItemInput{{ProductID: gocql.TimeUUID().String(), Quantity: 1}},
				Address:       validAddress(),
				PaymentMethod: models.PaymentMethodLydia,
			},
		},
		{
			name: "design requis mais absent",
			in: PlacementInput{
				Items:         []PlacementItemInput{{ProductID: scarf.ID.String(), Quantity: 1}},
				Address:       validAddress(),
				PaymentMethod: models.PaymentMethodLydia,
			},
		},
		{
			name: "design inexistant",
			in: PlacementInput{
				Items:         []PlacementItemInput{{ProductID: scarf.ID.String(), Quantity: 1, VariantName: "Corail"}},
				Address:       validAddress(),
				PaymentMethod: models.PaymentMethodLydia,
			},
		},
		{
			name: "design sur produit sans variantes",
			in: PlacementInput{
				Items:         []PlacementItemInput{{ProductID: vase.ID.String(), Quantity: 1, VariantName: "Indigo"}},
				Address:       validAddress(),
				PaymentMethod: models.PaymentMethodLydia,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(ctx, "user-1", tt.in)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "erreur: %v", err)
		})
	}
}

func TestPlaceOrderInsufficientStockNamesItem(t *testing.T) {
	svc, _, _, _, _, scarf := newPlacementFixture()

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlacementInput{
		Items:         []PlacementItemInput{{ProductID: scarf.ID.String(), Quantity: 5, VariantName: "Indigo"}},
		Address:       validAddress(),
		PaymentMethod: models.PaymentMethodBankTransfer,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Contains(t, err.Error(), "Écharpe tissée")
	assert.Contains(t, err.Error(), "Indigo")
}

func TestPlaceOrderInactiveProductRejected(t *testing.T) {
	inactive := models.Product{ID: gocql.TimeUUID(), Name: "Bol fêlé", Price: 10, Stock: 4, IsActive: false}
	stock := newFakeStock()
	stock.set(inactive.ID, "", 4)
	svc := NewPlacementService(newFakeCatalog(inactive), stock, newFakeOrders(), newFakePayments(), nil, testShippingFee)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlacementInput{
		Items:         []PlacementItemInput{{ProductID: inactive.ID.String(), Quantity: 1}},
		Address:       validAddress(),
		PaymentMethod: models.PaymentMethodLydia,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestPlaceOrderRetriesOnOrderNumberCollision(t *testing.T) {
	_, stock, _, payments, vase, _ := newPlacementFixture()
	orders := &conflictingOrders{fakeOrders: newFakeOrders(), conflicts: 2}
	svc := NewPlacementService(newFakeCatalog(vase), stock, orders, payments, nil, testShippingFee)

	order, err := svc.PlaceOrder(context.Background(), "user-1", PlacementInput{
		Items:         []PlacementItemInput{{ProductID: vase.ID.String(), Quantity: 1}},
		Address:       validAddress(),
		PaymentMethod: models.PaymentMethodPaylib,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, orders.attempts)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestPlaceOrderGivesUpAfterRepeatedCollisions(t *testing.T) {
	_, stock, _, payments, vase, _ := newPlacementFixture()
	orders := &conflictingOrders{fakeOrders: newFakeOrders(), conflicts: 10}
	svc := NewPlacementService(newFakeCatalog(vase), stock, orders, payments, nil, testShippingFee)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlacementInput{
		Items:         []PlacementItemInput{{ProductID: vase.ID.String(), Quantity: 1}},
		Address:       validAddress(),
		PaymentMethod: models.PaymentMethodPaylib,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPersistence))
	assert.Equal(t, orderNumberMaxRetries, orders.attempts)
}

// Le catalogue annonce du stock mais le registre réel n'en a plus : la garde
// échoue sur la deuxième ligne, la première est restituée et la commande
// auto-annulée plutôt que laissée pending sans stock retenu
func TestPlaceOrderRollbackOnLateGuardFailure(t *testing.T) {
	svc, stock, orders, _, vase, scarf := newPlacementFixture()

	// Le registre perd les 2 Indigo après la lecture catalogue
	stock.set(scarf.ID, "Indigo", 0)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlacementInput{
		Items: []PlacementItemInput{
			{ProductID: vase.ID.String(), Quantity: 2},
			{ProductID: scarf.ID.String(), Quantity: 1, VariantName: "Indigo"},
		},
		Address:       validAddress(),
		PaymentMethod: models.PaymentMethodBankTransfer,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// La ligne déjà décrémentée est restituée
	assert.Equal(t, 5, stock.level(vase.ID, ""))

	// La commande persistée est auto-annulée avec une note système
	cancelled, err := orders.ListByStatus(context.Background(), models.OrderStatusCancelled, 10)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	last := cancelled[0].StatusHistory[len(cancelled[0].StatusHistory)-1]
	assert.Equal(t, models.OrderStatusCancelled, last.Status)
	assert.Contains(t, last.Note, "annulation automatique")
	assert.Contains(t, last.Note, "Indigo")
}

// Deux acheteurs se disputent la dernière unité : exactement un des deux
// obtient la commande, l'autre reçoit un conflit de stock
func TestPlaceOrderConcurrentLastUnit(t *testing.T) {
	mug := models.Product{ID: gocql.TimeUUID(), Name: "Tasse émaillée", Price: 18.00, Stock: 1, IsActive: true}
	stock := newFakeStock()
	stock.set(mug.ID, "", 1)
	orders := newFakeOrders()
	svc := NewPlacementService(newFakeCatalog(mug), stock, orders, newFakePayments(), nil, testShippingFee)

	input := PlacementInput{
		Items:         []PlacementItemInput{{ProductID: mug.ID.String(), Quantity: 1}},
		Address:       validAddress(),
		PaymentMethod: models.PaymentMethodCashOnDelivery,
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), "user-"+string(rune('a'+i)), input)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "erreur: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, stock.level(mug.ID, ""))
}
