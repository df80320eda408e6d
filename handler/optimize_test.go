// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package handler_test

import (
	"bytes"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data"
	"github.com/regime-vault/rv-api/pgxmockhelper"
	"github.com/regime-vault/rv-api/router"
)

// pricePoints builds days of consecutive closes for one ticker starting at
// 2024-01-01, compounding 1% per day.
func pricePoints(ticker string, days int) []data.PricePoint {
	points := make([]data.PricePoint, 0, days)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < days; i++ {
		points = append(points, data.PricePoint{
			Ticker:   ticker,
			Date:     day.Format(common.DateFormat),
			AdjClose: price,
		})
		price *= 1.01
		day = day.AddDate(0, 0, 1)
	}
	return points
}

func postJSON(app *fiber.App, path string, body map[string]interface{}) *http.Response {
	raw, err := json.Marshal(body)
	Expect(err).To(BeNil())

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	Expect(err).To(BeNil())
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, 60_000)
	Expect(err).To(BeNil())
	return resp
}

var _ = Describe("RunOptimization", func() {
	var (
		app        *fiber.App
		optimizeRq map[string]interface{}
	)

	BeforeEach(func() {
		app = fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})
		router.SetupRoutes(app)

		optimizeRq = map[string]interface{}{
			"startDate":      "2024-01-01",
			"endDate":        "2024-02-01",
			"initialCapital": 1_000_000,
			"riskLevel":      3,
			"optimizeTarget": "return",
		}
	})

	Describe("when no universe ticker has price coverage", func() {
		It("should reject the request as bad", func() {
			pgxmockhelper.MockPrices(dbPool, pricePoints("ZZZ", 25))
			pgxmockhelper.MockRegimes(dbPool, nil)

			resp := postJSON(app, "/v1/optimize", optimizeRq)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("when the window has too few trading days", func() {
		It("should reject the request as bad", func() {
			pgxmockhelper.MockPrices(dbPool, pricePoints("SPY", 5))
			pgxmockhelper.MockRegimes(dbPool, nil)

			resp := postJSON(app, "/v1/optimize", optimizeRq)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("when the request window is malformed", func() {
		It("should reject it before touching the database", func() {
			optimizeRq["startDate"] = "01/01/2024"

			resp := postJSON(app, "/v1/optimize", optimizeRq)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("when the search succeeds", func() {
		It("should return the best policy found", func() {
			pgxmockhelper.MockPrices(dbPool, pricePoints("SPY", 25))
			pgxmockhelper.MockRegimes(dbPool, nil)

			resp := postJSON(app, "/v1/optimize", optimizeRq)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			raw, err := io.ReadAll(resp.Body)
			Expect(err).To(BeNil())

			var body map[string]interface{}
			Expect(json.Unmarshal(raw, &body)).To(Succeed())
			Expect(body).To(HaveKey("allocations"))
			Expect(body["target"]).To(Equal("return"))
			Expect(body["regimesUsed"]).To(ConsistOf("goldilocks"))
		})
	})
})
