package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"nexogeo-platform/models"
	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductService struct {
	DB *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{DB: db}
}

// parseClues decodes the clues form field: a JSON array of exactly five
// strings, ordered hardest → easiest.
func parseClues(raw string) ([]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("clues is required")
	}
	var clues []string
	if err := json.Unmarshal([]byte(raw), &clues); err != nil {
		return nil, fmt.Errorf("clues must be a JSON array of strings")
	}
	if len(clues) != models.ClueCount {
		return nil, fmt.Errorf("exactly %d clues are required, got %d", models.ClueCount, len(clues))
	}
	for i, clue := range clues {
		if clue == "" {
			return nil, fmt.Errorf("clue %d is empty", i+1)
		}
	}
	return clues, nil
}

// frozen reports whether a product is referenced by a finished round and is
// therefore immutable for audit integrity.
func (s *ProductService) frozen(tx *gorm.DB, productID string) (bool, error) {
	var count int64
	err := tx.Model(&models.CaixaGame{}).
		Where("product_id = ? AND status = ?", productID, models.GameStatusFinished).
		Count(&count).Error
	return count > 0, err
}

func (s *ProductService) CreateProduct(c *fiber.Ctx) error {
	sponsorID := c.FormValue("sponsor_id")
	name := c.FormValue("name")
	if sponsorID == "" || name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "sponsor_id and name are required"})
	}

	clues, err := parseClues(c.FormValue("clues"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	var sponsor models.Sponsor
	if err := s.DB.First(&sponsor, "id = ?", sponsorID).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "sponsor_id not found"})
	}

	product := &models.Product{
		ID:        uuid.NewString(),
		SponsorID: sponsorID,
		Name:      name,
	}
	if v := c.FormValue("value"); v != "" {
		fmt.Sscanf(v, "%f", &product.Value)
	}

	if image, err := c.FormFile("image"); err == nil && image.Size > 0 {
		ext := filepath.Ext(image.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "products/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(image, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload product image"})
		}
		product.ImageURL = url
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		for i, text := range clues {
			clue := models.ProductClue{
				ID:        uuid.NewString(),
				ProductID: product.ID,
				SortOrder: i,
				Text:      text,
			}
			if err := tx.Create(&clue).Error; err != nil {
				return err
			}
			product.Clues = append(product.Clues, clue)
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR creating product: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}
	return c.Status(201).JSON(product)
}

func (s *ProductService) GetAllProducts(c *fiber.Ctx) error {
	var products []models.Product
	query := s.DB.
		Preload("Sponsor").
		Preload("Clues", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"sort_order\" ASC")
		})
	if sponsorID := c.Query("sponsor_id"); sponsorID != "" {
		query = query.Where("sponsor_id = ?", sponsorID)
	}
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch products"})
	}
	return c.JSON(products)
}

func (s *ProductService) GetProductByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var product models.Product
	err := s.DB.
		Preload("Sponsor").
		Preload("Clues", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"sort_order\" ASC")
		}).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "product not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(product)
}

// UpdateProduct edits a product and optionally replaces its clue set.
// Products referenced by a finished round are frozen.
func (s *ProductService) UpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	var product models.Product
	if err := s.DB.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "product not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	isFrozen, err := s.frozen(s.DB, id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if isFrozen {
		return c.Status(409).JSON(fiber.Map{"error": "product is referenced by a finished round and cannot change"})
	}

	var clues []string
	if raw := c.FormValue("clues"); raw != "" {
		clues, err = parseClues(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
	}

	updates := map[string]interface{}{}
	if v := c.FormValue("name"); v != "" {
		updates["name"] = v
	}
	if v := c.FormValue("value"); v != "" {
		var value float64
		fmt.Sscanf(v, "%f", &value)
		updates["value"] = value
	}
	if image, err := c.FormFile("image"); err == nil && image.Size > 0 {
		ext := filepath.Ext(image.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "products/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(image, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload product image"})
		}
		updates["image_url"] = url
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}
		}
		if clues != nil {
			if err := tx.Delete(&models.ProductClue{}, "product_id = ?", id).Error; err != nil {
				return err
			}
			for i, text := range clues {
				clue := models.ProductClue{
					ID:        uuid.NewString(),
					ProductID: id,
					SortOrder: i,
					Text:      text,
				}
				if err := tx.Create(&clue).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR updating product %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}

	s.DB.Preload("Clues", func(db *gorm.DB) *gorm.DB {
		return db.Order("\"sort_order\" ASC")
	}).First(&product, "id = ?", id)
	return c.JSON(product)
}

func (s *ProductService) DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	isFrozen, err := s.frozen(s.DB, id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if isFrozen {
		return c.Status(409).JSON(fiber.Map{"error": "product is referenced by a finished round and cannot be deleted"})
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ProductClue{}, "product_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &NotFoundError{Msg: "product not found"}
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			log.Printf("ERROR deleting product %s: %v", id, err)
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "product deleted"})
}
