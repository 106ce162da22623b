package catalog_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"garageflow/internal/domain/catalogs/client"
	"garageflow/internal/infrastructure/storage/postgres"
)

const clientTable = "cat_clients"

// ClientRepo implements client.Repository.
type ClientRepo struct {
	*BaseCatalogRepo[*client.Client]
}

var _ client.Repository = (*ClientRepo)(nil)

// NewClientRepo creates a new client repository.
func NewClientRepo(txManager *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txManager, BaseCatalogConfig[*client.Client]{
			TableName:  clientTable,
			EntityName: "client",
			SelectCols: postgres.ExtractDBColumns[client.Client](),
			SearchCols: []string{"name", "company_name", "email", "phone"},
			New:        func() *client.Client { return &client.Client{} },
		}),
	}
}

// FindByEmail retrieves a live client by email, case-insensitively.
func (r *ClientRepo) FindByEmail(ctx context.Context, email string) (*client.Client, error) {
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return nil, err
	}
	return r.FindOne(ctx, q.
		Where(squirrel.Expr("lower(email) = ?", strings.ToLower(email))).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1))
}
