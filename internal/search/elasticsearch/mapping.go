package elasticsearch

// indexMapping is the settings/mappings body used for every lazily
// created index. String fields are dynamically mapped as text with a
// keyword subfield so they stay both searchable and sortable.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "dynamic_templates": [
      {
        "strings_as_text_and_keyword": {
          "match_mapping_type": "string",
          "mapping": {
            "type": "text",
            "fields": {
              "keyword": { "type": "keyword", "ignore_above": 256 }
            }
          }
        }
      }
    ],
    "properties": {
      "id": { "type": "keyword" }
    }
  }
}`
