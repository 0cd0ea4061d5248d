package database

import (
	"github.com/gocql/gocql"
)

// Textes des requêtes chaudes du flux de commande. Chaque accesseur retourne
// un *gocql.Query neuf : un Query lié par Bind ne doit jamais être partagé
// entre deux requêtes HTTP concurrentes. gocql prépare et met en cache les
// statements par session et par texte, la préparation ne coûte donc qu'une
// seule fois par nœud.
const (
	queryGetOrder = `SELECT order_id, order_number, user_id, recipient_name, phone, street, city, postal_code,
		payment_method, payment_status, status, total_amount, shipping_fee, notes, created_at, updated_at
		FROM orders WHERE order_id = ?`

	queryGetOrderItems = `SELECT item_no, product_id, name, unit_price, quantity, variant_name, customization
		FROM order_items WHERE order_id = ?`

	queryGetOrderHistory = `SELECT status, note, changed_at
		FROM order_status_history WHERE order_id = ?`

	queryGetPaymentByOrder = `SELECT payment_id FROM payments_by_order WHERE order_id = ?`

	queryGetProductForOrder = `SELECT product_id, name, description, price, stock, low_stock_threshold,
		image_urls, is_active, is_deleted, has_variants, created_at, updated_at
		FROM products WHERE product_id = ?`
)

func GetPreparedGetOrder() *gocql.Query {
	return ordersQuery(queryGetOrder)
}

func GetPreparedGetOrderItems() *gocql.Query {
	return ordersQuery(queryGetOrderItems)
}

func GetPreparedGetOrderHistory() *gocql.Query {
	return ordersQuery(queryGetOrderHistory)
}

func GetPreparedGetPaymentByOrder() *gocql.Query {
	return ordersQuery(queryGetPaymentByOrder)
}

func GetPreparedGetProductForOrder() *gocql.Query {
	session, err := GetProductsSession()
	if err != nil {
		return nil
	}
	return session.Query(queryGetProductForOrder)
}

func ordersQuery(stmt string) *gocql.Query {
	session, err := GetOrdersSession()
	if err != nil {
		return nil
	}
	return session.Query(stmt)
}
