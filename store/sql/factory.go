package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	catalogStore  *CatalogStore
	responseStore *ResponseStore
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	return newRepositoryFactory(client)
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	return newRepositoryFactory(db)
}

func newRepositoryFactory(candidate any) (*RepositoryFactory, error) {
	db, err := resolveBunDB(candidate)
	if err != nil {
		return nil, err
	}
	catalogStore, err := NewCatalogStore(db)
	if err != nil {
		return nil, err
	}
	responseStore, err := NewResponseStore(db)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{
		db:            db,
		catalogStore:  catalogStore,
		responseStore: responseStore,
	}, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) CatalogStore() *CatalogStore {
	if f == nil {
		return nil
	}
	return f.catalogStore
}

func (f *RepositoryFactory) ResponseStore() *ResponseStore {
	if f == nil {
		return nil
	}
	return f.responseStore
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		if typed == nil {
			return nil, fmt.Errorf("sqlstore: bun db is required")
		}
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
