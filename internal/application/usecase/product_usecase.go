package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/shelf-inventory/internal/application/analytics"
	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

// DefaultProductSort ordena los listados de productos del más nuevo al más viejo.
var DefaultProductSort = repository.Sort{Key: repository.SortCreatedAt, Desc: true}

// ListProductsInput filtra, ordena y pagina un listado de productos.
type ListProductsInput struct {
	Name   string
	Spec   string
	Sort   string
	Order  string
	Limit  int
	Offset int
}

// ProductUseCase gestiona el catálogo de productos. Los campos de stock solo los cambia
// el motor de inventario; aquí se fijan una vez al crear.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner inventory.TxRunner
	cache    *analytics.AggregateCache
	log      zerolog.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	txRunner inventory.TxRunner,
	cache *analytics.AggregateCache,
	log zerolog.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		repo:     repo,
		txRunner: txRunner,
		cache:    cache,
		log:      log.With().Str("component", "product_usecase").Logger(),
	}
}

// Create agrega un producto con RunningBalance = InitialStock. (name, spec) debe ser único
// sin distinguir mayúsculas.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name, spec, unit := strings.TrimSpace(in.Name), strings.TrimSpace(in.Spec), strings.TrimSpace(in.Unit)
	if name == "" || unit == "" {
		return nil, domain.Reject(domain.ErrInvalidInput, "name and unit are required")
	}
	if in.InitialStock < 0 {
		return nil, domain.Reject(domain.ErrInvalidInput, "initial stock must not be negative")
	}
	if in.Price.LessThan(decimal.Zero) {
		return nil, domain.Reject(domain.ErrInvalidInput, "price must not be negative")
	}
	if err := uc.ensureUnique(ctx, "", name, spec); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:             uuid.New().String(),
		Name:           name,
		Spec:           spec,
		Unit:           unit,
		InitialStock:   in.InitialStock,
		Price:          in.Price,
		RunningBalance: in.InitialStock,
		ImageURL:       strings.TrimSpace(in.ImageURL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, duplicate(name, spec)
		}
		return nil, err
	}
	uc.invalidate(ctx)
	return toProductResponse(product), nil
}

// GetByID devuelve un producto.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List devuelve una página filtrada de productos.
func (uc *ProductUseCase) List(ctx context.Context, in ListProductsInput) (*dto.ProductListResponse, error) {
	sort, err := repository.ParseSort(in.Sort, in.Order, repository.ProductSortKeys, DefaultProductSort)
	if err != nil {
		return nil, err
	}
	page := dto.PageRequest{Limit: in.Limit, Offset: in.Offset}
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, repository.ProductQuery{
		Filter: repository.ProductFilter{Name: strings.TrimSpace(in.Name), Spec: strings.TrimSpace(in.Spec)},
		Sort:   sort,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Update cambia los atributos descriptivos. InitialStock y RunningBalance no se escriben.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Spec != nil {
		product.Spec = strings.TrimSpace(*in.Spec)
	}
	if in.Unit != nil {
		product.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if product.Name == "" || product.Unit == "" {
		return nil, domain.Reject(domain.ErrInvalidInput, "name and unit are required")
	}
	if product.Price.LessThan(decimal.Zero) {
		return nil, domain.Reject(domain.ErrInvalidInput, "price must not be negative")
	}
	if err := uc.ensureUnique(ctx, product.ID, product.Name, product.Spec); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, duplicate(product.Name, product.Spec)
		}
		return nil, err
	}
	uc.invalidate(ctx)
	return toProductResponse(product), nil
}

// Delete elimina un producto que nunca tuvo salidas. Sus entradas se eliminan con él en
// la misma transacción.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	err := uc.txRunner.Run(ctx, func(products repository.ProductRepository, ledger repository.LedgerRepository) error {
		p, err := products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return notFound(id)
		}
		outbound, err := ledger.CountByProduct(ctx, id, entity.DirectionOutbound)
		if err != nil {
			return err
		}
		if outbound > 0 {
			return domain.Reject(domain.ErrProductInUse,
				fmt.Sprintf("product %s has %d outbound entries and cannot be deleted", p.Name, outbound))
		}
		if _, err := ledger.DeleteByProduct(ctx, id, entity.DirectionInbound); err != nil {
			return err
		}
		return products.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.invalidate(ctx)
	return nil
}

// Options devuelve todos los productos en forma de selector, desde el pool de opciones si
// hay caché configurado.
func (uc *ProductUseCase) Options(ctx context.Context) ([]dto.ProductOptionDTO, error) {
	if uc.cache == nil {
		return uc.loadOptions(ctx)
	}
	return analytics.Fetch(ctx, uc.cache, analytics.PoolOptions, "product_options", uc.loadOptions)
}

func (uc *ProductUseCase) loadOptions(ctx context.Context) ([]dto.ProductOptionDTO, error) {
	list, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductOptionDTO, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ProductOptionDTO{ID: p.ID, Name: p.Name, Spec: p.Spec, Unit: p.Unit})
	}
	return out, nil
}

func (uc *ProductUseCase) get(ctx context.Context, id string) (*entity.Product, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, notFound(id)
	}
	return product, nil
}

// ensureUnique rechaza un par (name, spec) ya usado por otro producto distinto de self.
func (uc *ProductUseCase) ensureUnique(ctx context.Context, self, name, spec string) error {
	existing, err := uc.repo.FindByNameAndSpec(ctx, name, spec)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.ID != self {
			return duplicate(name, spec)
		}
	}
	return nil
}

// invalidate descarta las listas de opciones y las estadísticas tras un cambio de catálogo.
func (uc *ProductUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.InvalidateOptions(ctx); err != nil {
		uc.log.Error().Err(err).Msg("invalidate options cache")
	}
	if err := uc.cache.InvalidateStats(ctx); err != nil {
		uc.log.Error().Err(err).Msg("invalidate stats cache")
	}
}

func duplicate(name, spec string) error {
	return domain.Reject(domain.ErrDuplicate, fmt.Sprintf("a product named %q with spec %q already exists", name, spec))
}

func notFound(id string) error {
	return domain.Reject(domain.ErrNotFound, fmt.Sprintf("product %s not found", id))
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Spec:           p.Spec,
		Unit:           p.Unit,
		InitialStock:   p.InitialStock,
		Price:          p.Price,
		RunningBalance: p.RunningBalance,
		ImageURL:       p.ImageURL,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
