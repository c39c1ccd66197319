package testutil

// Hierarchy is a predicate hierarchy in the biolink-model layout.
const Hierarchy = `
slots:
  related to:
    symmetric: true
  related to at instance level:
    is_a: related to
  interacts with:
    is_a: related to at instance level
    symmetric: true
  physically interacts with:
    is_a: interacts with
    symmetric: true
  treats:
    is_a: related to at instance level
    inverse: treated by
  treated by:
    is_a: related to at instance level
  causes:
    is_a: related to at instance level
  caused by:
    is_a: related to at instance level
    inverse: causes
  subclass of:
    is_a: related to
    inverse: superclass of
  superclass of:
    is_a: related to
classes:
  named thing:
  chemical entity:
    is_a: named thing
  biological entity:
    is_a: named thing
  gene or gene product:
    is_a: biological entity
  protein:
    is_a: gene or gene product
  gene:
    is_a: gene or gene product
  disease or phenotypic feature:
    is_a: biological entity
  disease:
    is_a: disease or phenotypic feature
  phenotypic feature:
    is_a: disease or phenotypic feature
`

// Graph is a graph document over Hierarchy.
//
//	CHEBI:1 aspirin     -interacts_with->            UniProtKB:P1 (Protein, Gene)
//	CHEBI:1 aspirin     -physically_interacts_with-> UniProtKB:P2
//	CHEBI:2 ibuprofen   -interacts_with->            UniProtKB:P2
//	CHEBI:1 aspirin     -treats->                    MONDO:2 headache
//	MONDO:3 migraine    -treated_by->                CHEBI:2 ibuprofen
//	CHEBI:2 ibuprofen   -causes->                    HP:1 fever
//	MONDO:2 headache    -subclass_of->               MONDO:1 pain disorder
//	MONDO:3 migraine    -subclass_of->               MONDO:2 headache
const Graph = `{
  "nodes": [
    {"id": "CHEBI:1", "name": "aspirin", "category": ["biolink:ChemicalEntity"], "equivalent_identifiers": ["CHEBI:1", "PUBCHEM.COMPOUND:2244"]},
    {"id": "CHEBI:2", "name": "ibuprofen", "category": ["biolink:ChemicalEntity"]},
    {"id": "UniProtKB:P1", "name": "PTGS1", "category": ["biolink:Protein", "biolink:Gene"]},
    {"id": "UniProtKB:P2", "name": "PTGS2", "category": "biolink:Protein"},
    {"id": "MONDO:1", "name": "pain disorder", "category": ["biolink:Disease"]},
    {"id": "MONDO:2", "name": "headache", "category": ["biolink:Disease"]},
    {"id": "MONDO:3", "name": "migraine", "category": ["biolink:Disease"]},
    {"id": "HP:1", "name": "fever", "category": ["biolink:PhenotypicFeature"]}
  ],
  "edges": [
    {"id": "e1", "subject": "CHEBI:1", "predicate": "biolink:interacts_with", "object": "UniProtKB:P1", "primary_knowledge_source": "infores:ctd"},
    {"id": "e2", "subject": "CHEBI:1", "predicate": "biolink:physically_interacts_with", "object": "UniProtKB:P2", "primary_knowledge_source": "infores:chembl"},
    {"id": "e3", "subject": "CHEBI:2", "predicate": "biolink:interacts_with", "object": "UniProtKB:P2", "primary_knowledge_source": "infores:ctd"},
    {"id": "e4", "subject": "CHEBI:1", "predicate": "biolink:treats", "object": "MONDO:2", "primary_knowledge_source": "infores:drugcentral"},
    {"id": "e5", "subject": "MONDO:3", "predicate": "biolink:treated_by", "object": "CHEBI:2", "primary_knowledge_source": "infores:drugcentral"},
    {"id": "e6", "subject": "CHEBI:2", "predicate": "biolink:causes", "object": "HP:1", "primary_knowledge_source": "infores:sider", "knowledge_level": "knowledge_assertion"},
    {"id": "e7", "subject": "MONDO:2", "predicate": "biolink:subclass_of", "object": "MONDO:1", "primary_knowledge_source": "infores:mondo"},
    {"id": "e8", "subject": "MONDO:3", "predicate": "biolink:subclass_of", "object": "MONDO:2", "primary_knowledge_source": "infores:mondo"}
  ]
}`
