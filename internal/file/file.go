// Package file пишет и читает список ссылок в формате JSON Lines:
// одна запись LinkRecord на строку.
package file

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/sol1corejz/linkly/internal/models"
)

type Producer struct {
	File    *os.File
	encoder *json.Encoder
}

type Consumer struct {
	File    *os.File
	decoder *json.Decoder
}

// NewProducer открывает файл на запись, перезаписывая прежнее содержимое.
func NewProducer(fileName string) (*Producer, error) {
	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	return &Producer{
		File:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (p *Producer) WriteRecord(rec *models.LinkRecord) error {
	return p.encoder.Encode(rec)
}

// WriteAll записывает записи по порядку и возвращает число записанных.
func (p *Producer) WriteAll(recs []models.LinkRecord) (int, error) {
	for i := range recs {
		if err := p.WriteRecord(&recs[i]); err != nil {
			return i, err
		}
	}
	return len(recs), nil
}

func (p *Producer) Close() error {
	return p.File.Close()
}

func NewConsumer(fileName string) (*Consumer, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		File:    file,
		decoder: json.NewDecoder(file),
	}, nil
}

// ReadRecord возвращает следующую запись или io.EOF.
func (c *Consumer) ReadRecord() (*models.LinkRecord, error) {
	rec := &models.LinkRecord{}
	if err := c.decoder.Decode(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ReadAll читает записи до конца файла.
func (c *Consumer) ReadAll() ([]models.LinkRecord, error) {
	var recs []models.LinkRecord
	for {
		rec, err := c.ReadRecord()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, *rec)
	}
}

func (c *Consumer) Close() error {
	return c.File.Close()
}
