package monitoring_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pagesim/mem/paging"
	"github.com/sarchlab/pagesim/monitoring"
)

type plainComponent struct {
	name string
}

func (c plainComponent) Name() string {
	return c.name
}

var _ = Describe("Monitor", func() {
	var (
		m      *monitoring.Monitor
		mmu    *paging.MMU
		router http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		mmu = paging.MakeBuilder().
			WithBlockSize(1).
			WithResidentSize(2).
			WithBackingSize(4).
			Build("MMU")

		m = monitoring.NewMonitor()
		m.RegisterComponent(mmu)
		m.RegisterComponent(plainComponent{name: "Plain"})
		router = m.Router()
	})

	It("should list components", func() {
		rec := get("/api/list_components")

		var names []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(Equal([]string{"MMU", "Plain"}))
	})

	It("should report stats", func() {
		Expect(mmu.Admit(paging.Process{ID: 1, Size: 3})).To(Succeed())
		_, err := mmu.Load(1, 0)
		Expect(err).NotTo(HaveOccurred())

		rec := get("/api/stats/MMU")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var stats paging.Stats
		Expect(json.Unmarshal(rec.Body.Bytes(), &stats)).To(Succeed())
		Expect(stats.AccessCount).To(Equal(uint64(1)))
		Expect(stats.FaultCount).To(Equal(uint64(1)))
		Expect(stats.ResidentSize).To(Equal(1))
		Expect(stats.BackingSize).To(Equal(3))
	})

	It("should return 404 for unknown components", func() {
		Expect(get("/api/stats/Nope").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/component/Nope").Code).To(Equal(http.StatusNotFound))
	})

	It("should serialize a component", func() {
		Expect(mmu.Admit(paging.Process{ID: 1, Size: 3})).To(Succeed())

		rec := get("/api/component/MMU")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(json.Valid(rec.Body.Bytes())).To(BeTrue())
	})

	It("should serialize a field of a component", func() {
		req := `{"comp_name":"MMU","field_name":"Stats"}`

		rec := get("/api/field/" + url.PathEscape(req))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(json.Valid(rec.Body.Bytes())).To(BeTrue())
	})

	It("should reject malformed field requests", func() {
		rec := get("/api/field/" + url.PathEscape("not json"))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should inspect the MMU while it is being loaded", func() {
		Expect(mmu.Admit(paging.Process{ID: 1, Size: 4})).To(Succeed())

		fieldReq := "/api/field/" +
			url.PathEscape(`{"comp_name":"MMU","field_name":"Stats"}`)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer GinkgoRecover()
			defer wg.Done()

			for i := 0; i < 2000; i++ {
				_, err := mmu.Load(1, i%4)
				Expect(err).NotTo(HaveOccurred())
			}
		}()

		for i := 0; i < 50; i++ {
			Expect(get("/api/component/MMU").Code).To(Equal(http.StatusOK))
			Expect(get(fieldReq).Code).To(Equal(http.StatusOK))
			Expect(get("/api/stats/MMU").Code).To(Equal(http.StatusOK))
		}

		wg.Wait()

		Expect(mmu.AccessCount()).To(Equal(uint64(2000)))
	})

	It("should refuse stats of components without stats", func() {
		rec := get("/api/stats/Plain")

		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
	})

	It("should list tiers by fill percentage", func() {
		Expect(mmu.Admit(paging.Process{ID: 1, Size: 1})).To(Succeed())
		_, err := mmu.Load(1, 0)
		Expect(err).NotTo(HaveOccurred())

		rec := get("/api/tiers")

		var tiers []map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &tiers)).To(Succeed())
		Expect(tiers).To(HaveLen(2))
		Expect(tiers[0]["tier"]).To(Equal("MMU.Resident"))
		Expect(tiers[1]["tier"]).To(Equal("MMU.Backing"))
	})

	It("should list tiers by level", func() {
		Expect(mmu.Admit(paging.Process{ID: 1, Size: 3})).To(Succeed())
		_, err := mmu.Load(1, 0)
		Expect(err).NotTo(HaveOccurred())

		rec := get("/api/tiers?sort=level&limit=1")

		var tiers []map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &tiers)).To(Succeed())
		Expect(tiers).To(HaveLen(1))
		Expect(tiers[0]["tier"]).To(Equal("MMU.Backing"))
	})

	It("should handle offsets past the end", func() {
		rec := get("/api/tiers?offset=10")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("[]"))
	})

	It("should reject invalid tier queries", func() {
		Expect(get("/api/tiers?sort=size").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/tiers?limit=abc").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/tiers?offset=-1").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("Demand", 10)
		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)

		rec := get("/api/progress")

		var bars []map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("Demand"))
		Expect(bars[0]["total"]).To(BeNumerically("==", 10))
		Expect(bars[0]["finished"]).To(BeNumerically("==", 3))
		Expect(bars[0]["in_progress"]).To(BeNumerically("==", 1))

		m.CompleteProgressBar(bar)

		Expect(get("/api/progress").Body.String()).To(Equal("[]"))
	})
})
