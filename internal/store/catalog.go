// ABOUTME: Product and order store methods
// ABOUTME: Orders link products through order_product_association

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateProduct inserts a product and sets its ID.
func (s *SQLiteStore) CreateProduct(ctx context.Context, p *Product) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO products (name, description, price) VALUES (?, ?, ?)`,
		p.Name, p.Description, p.Price,
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	if p.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("reading product id: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, price FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying product: %w", err)
	}
	return &p, nil
}

// ListProducts returns all products ordered by ID.
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, price FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := []*Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

// UpdateProduct applies patch to the product and returns the updated row.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ? WHERE id = ?`,
		p.Name, p.Description, p.Price, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes a product. Returns ErrNotFound if it does not exist
// and ErrConflict if an order still references it.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("product %d is referenced by an order: %w", id, ErrConflict)
		}
		return fmt.Errorf("deleting product: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateOrder inserts an order together with its product links in one transaction.
// Duplicate product IDs are collapsed. Returns ErrNotFound if a product does not exist.
func (s *SQLiteStore) CreateOrder(ctx context.Context, order *Order, productIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC().Truncate(time.Second)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO orders (promo_code, created_at) VALUES (?, ?)`,
		nullString(order.PromoCode), formatTime(order.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	if order.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("reading order id: %w", err)
	}

	seen := make(map[int64]bool, len(productIDs))
	for _, pid := range productIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_product_association (order_id, product_id) VALUES (?, ?)`,
			order.ID, pid,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("product %d: %w", pid, ErrNotFound)
			}
			return fmt.Errorf("linking product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order: %w", err)
	}

	s.logger.Debug("created order", "id", order.ID, "products", len(seen))
	return nil
}

// GetOrder retrieves an order with its products loaded.
func (s *SQLiteStore) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var order Order
	var promo sql.NullString
	var createdAtStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, promo_code, created_at FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &promo, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}
	order.PromoCode = promo.String
	if order.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.price
		FROM order_product_association a
		JOIN products p ON p.id = a.product_id
		WHERE a.order_id = ?
		ORDER BY p.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying order products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	order.Products = []*Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price); err != nil {
			return nil, fmt.Errorf("scanning order product: %w", err)
		}
		order.Products = append(order.Products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order products: %w", err)
	}
	return &order, nil
}
